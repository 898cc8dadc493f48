/*
Package auth provides receipt codes, source hashing, and token handling.

# Receipt Codes

GenerateReceiptCode produces a 16-character cryptographically random code from
a 32-character unambiguous alphabet (no I/O/0/1). Codes are stored uppercase;
NormalizeReceipt folds user input to the stored form so verification is
case-insensitive without ever being a prefix match.

# Tokens

Two JWT (HS256) subjects share one signing secret:

  - admin tokens, issued by POST /admin/login after a bcrypt check
  - voter tokens, issued by registration and bound to one election

Use SignAdminToken / SignVoterToken to issue and ParseToken to validate.

# Source Hashing

HashSource HMACs an originating IP with a server salt; the hash feeds the
anomaly monitor's duplicate-source heuristic without storing raw addresses.
*/
package auth
