package engine

import (
	"context"
	"time"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/models"
)

// VerifyReceipt confirms a vote with the given receipt code was admitted.
// The lookup is exact-match over the normalized (uppercase) form, so codes
// are case-insensitive but partial codes never match. The response carries
// the election title and cast time only, never the position or candidate,
// since receipt codes are independent of the selection.
//
// An unknown code is not an error: the caller gets found=false.
func (e *Engine) VerifyReceipt(ctx context.Context, code string) (models.VerifyReceiptResponse, error) {
	normalized := auth.NormalizeReceipt(code)
	if normalized == "" {
		return models.VerifyReceiptResponse{Found: false}, nil
	}

	var title string
	var castAt time.Time
	err := e.db.QueryRowContext(ctx, `
		SELECT el.title, v.cast_at
		FROM vote v
		JOIN election el ON el.id = v.election_id
		WHERE v.receipt_code = $1
	`, normalized).Scan(&title, &castAt)
	if isNotFound(err) {
		return models.VerifyReceiptResponse{Found: false}, nil
	}
	if err != nil {
		return models.VerifyReceiptResponse{}, storageErr("verify receipt", err)
	}

	return models.VerifyReceiptResponse{
		Found:         true,
		ElectionTitle: title,
		CastAt:        &castAt,
	}, nil
}
