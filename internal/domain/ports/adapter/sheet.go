package adapter

import (
	"context"
	"io"

	"gymdesk/internal/domain/model"
)

// SheetParser maps the first sheet of an uploaded spreadsheet onto member
// drafts. Rows without a name are dropped; dropped is their count.
type SheetParser interface {
	Parse(ctx context.Context, r io.Reader, filename string) (drafts []model.MemberDraft, dropped int, err error)
}
