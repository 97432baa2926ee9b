package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eveexchange/backend/internal/domain"
)

// Archiver persists completed regional scans and full order-book
// snapshots to blob storage for offline analysis. Scan archives are
// small and go up in one request; order-book snapshots for a busy
// region run to hundreds of megabytes and use the multipart uploader.
type Archiver struct {
	writer *Writer
	audit  domain.AuditStore
}

// NewArchiver creates an Archiver that records each upload in the audit
// log.
func NewArchiver(writer *Writer, audit domain.AuditStore) *Archiver {
	return &Archiver{writer: writer, audit: audit}
}

// ArchiveScan uploads one completed scan as a JSON document at
// scans/YYYY/MM/DD/<id>.json.
func (a *Archiver) ArchiveScan(ctx context.Context, scan domain.ArbitrageScan) error {
	body, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("s3blob: archive scan marshal: %w", err)
	}

	path := fmt.Sprintf("scans/%s/%s.json", scan.ScannedAt.UTC().Format("2006/01/02"), scan.ID)
	if err := a.writer.Put(ctx, path, "application/json", bytes.NewReader(body)); err != nil {
		return fmt.Errorf("s3blob: archive scan upload: %w", err)
	}

	if err := a.audit.Log(ctx, scan.UserID, "archive.scan", map[string]any{
		"path":   path,
		"scanID": scan.ID,
		"trades": len(scan.Trades),
	}); err != nil {
		return fmt.Errorf("s3blob: archive scan audit log: %w", err)
	}
	return nil
}

// ArchiveOrderBook serialises a region's order book as JSONL, one order
// per line, and uploads it at books/<region>/<timestamp>.jsonl.
func (a *Archiver) ArchiveOrderBook(ctx context.Context, regionID int64, book domain.OrderBook, at time.Time) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, orders := range book {
		for _, o := range orders {
			if err := enc.Encode(o); err != nil {
				return fmt.Errorf("s3blob: archive book encode order %d: %w", o.OrderID, err)
			}
		}
	}

	path := fmt.Sprintf("books/%d/%s.jsonl", regionID, at.UTC().Format("2006-01-02T15-04-05"))
	if err := a.writer.PutMultipart(ctx, path, &buf, minPartSize); err != nil {
		return fmt.Errorf("s3blob: archive book upload: %w", err)
	}
	return nil
}
