package worker

// closure_receipt_worker.go renders the PDF receipt of a daily closure and
// mails it to the owner through QueueEmail.

import (
	"context"
	"encoding/json"
	"fmt"

	"chicpos/internal/infra"
	"chicpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ClosureReceiptPayload struct {
	ClosureID string `json:"closure_id"`
}

// EmailQueue is the part of Dispatcher a worker uses to chain a mail job.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ClosureReceiptWorker struct {
	closures    repository.ClosureRepository
	emails      EmailQueue
	storeName   string
	storagePath string
	ownerEmail  string
}

func NewClosureReceiptWorker(
	closures repository.ClosureRepository,
	emails EmailQueue,
	storeName, storagePath, ownerEmail string,
) *ClosureReceiptWorker {
	return &ClosureReceiptWorker{
		closures:    closures,
		emails:      emails,
		storeName:   storeName,
		storagePath: storagePath,
		ownerEmail:  ownerEmail,
	}
}

func (w *ClosureReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ClosureReceiptPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("closure_receipt_worker: invalid payload")
		return nil
	}
	id, err := uuid.Parse(payload.ClosureID)
	if err != nil {
		log.Error().Str("closure_id", payload.ClosureID).Msg("closure_receipt_worker: invalid closure id")
		return nil
	}

	closure, err := w.closures.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("closure_receipt_worker: load closure %s: %w", id, err)
	}

	pdfPath, err := infra.GenerateClosurePDF(closure, w.storeName, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("pdf", pdfPath).Str("day", closure.Day).Msg("closure_receipt_worker: PDF generated")

	if w.ownerEmail == "" || w.emails == nil {
		return nil
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.ownerEmail,
		Subject: fmt.Sprintf("%s: fechamento de %s", w.storeName, closure.Day),
		Body: fmt.Sprintf("Fechamento de %s por %s.\nTotal vendido: R$ %s\nVendas: %d\nAjustes líquidos: R$ %s\n",
			closure.Day, closure.ClosedBy, closure.TotalSales.StringFixed(2), closure.SalesCount,
			closure.NetAdjustments.StringFixed(2)),
		PDFPath: pdfPath,
	})
}
