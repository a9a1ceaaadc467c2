package booking

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"keyboardquipo/models"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// GET /booking/:id/receipt renders a PDF receipt for a paid booking.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	b, ok := h.loadOwned(w, r, id, "Receipt")
	if !ok {
		return
	}
	if b == nil {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	if !b.Paid {
		utils.RespondWithError(w, http.StatusConflict, "booking is not paid")
		return
	}

	payments, err := h.store.ListPaymentsByBooking(r.Context(), id)
	if err != nil {
		utils.RespondWithStoreError(w, "Receipt", err)
		return
	}

	pdfBytes, err := RenderReceipt(b, payments, utils.GetUUID())
	if err != nil {
		log.Printf("Receipt: render booking %s, err=%v", id, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+id+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// RenderReceipt builds the receipt PDF. The QR code encodes bookingId|transactionId.
func RenderReceipt(b *models.Booking, payments []models.Payment, receiptNo string) ([]byte, error) {
	qrPNG, err := qrcode.Encode(b.ID.Hex()+"|"+b.TransactionID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Keyboardquipo Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Receipt No: " + receiptNo,
		"Booking ID: " + b.ID.Hex(),
		"Buyer: " + b.Buyer,
		fmt.Sprintf("Part: %s x %d", b.PartName, b.Quantity),
		fmt.Sprintf("Unit price: %.2f", b.Price),
		fmt.Sprintf("Total: %.2f", b.Total()),
		"Transaction: " + b.TransactionID,
	}
	for _, p := range payments {
		lines = append(lines, fmt.Sprintf("Paid %.2f on %s", p.Amount, p.CreatedAt.UTC().Format(time.RFC1123)))
	}
	for _, line := range lines {
		pdf.Cell(0, 10, line)
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 30, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
