/*
Package monitor watches the stream of admitted votes for suspicious
patterns and records advisory alerts.

The monitor runs as a single goroutine consuming AdmissionEvents from a
buffered channel. The ledger publishes with a non-blocking send, so a slow
or stalled monitor never delays an admission; a dropped event only costs
detection coverage, never a vote.

# Heuristics

  - duplicate_source: one originating source identifier admitting at least
    N votes inside a sliding window. Severity escalates to high at twice
    the threshold.
  - rapid_rate: a single voter acting again sooner than a configured floor
    after their previous admission.

Each pattern alerts once per election and subject until it escalates to a
higher severity, so a burst does not flood the alert table.

Alerts are advisory. Resolving one is an administrative acknowledgement; it
never touches the vote it references.
*/
package monitor
