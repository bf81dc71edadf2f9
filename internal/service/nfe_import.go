package service

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"time"

	"chicpos/internal/dto"

	"github.com/shopspring/decimal"
)

// maxNFeSize bounds an uploaded invoice.
const maxNFeSize = 2 << 20

const (
	nfeUnknownSupplier = "Desconhecido"
	nfeUnknownNumber   = "N/A"
)

var errNotNFe = errors.New("O arquivo XML fornecido não é uma NF-e válida.")

// ParseNFe extracts the purchase fields of a Brazilian NF-e. Like the
// invoice viewers do, it takes the first occurrence of each tag, so the
// issuer (emit) wins over the recipient (dest). now fills a missing dhEmi.
func ParseNFe(r io.Reader, now time.Time) (dto.CreatePurchaseRequest, error) {
	wanted := map[string]string{"xNome": "", "CNPJ": "", "vNF": "", "nNF": "", "dhEmi": ""}
	seen := map[string]bool{}
	var key string
	var sawInfNFe bool

	dec := xml.NewDecoder(io.LimitReader(r, maxNFeSize))
	var current string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dto.CreatePurchaseRequest{}, invalid("file", errNotNFe.Error())
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
			if current == "infNFe" && !sawInfNFe {
				sawInfNFe = true
				for _, a := range t.Attr {
					if a.Name.Local == "Id" {
						key = strings.TrimPrefix(strings.TrimSpace(a.Value), "NFe")
					}
				}
			}
		case xml.CharData:
			if _, ok := wanted[current]; ok && !seen[current] {
				if v := strings.TrimSpace(string(t)); v != "" {
					wanted[current] = v
					seen[current] = true
				}
			}
		case xml.EndElement:
			current = ""
		}
	}

	if !sawInfNFe {
		return dto.CreatePurchaseRequest{}, invalid("file", errNotNFe.Error())
	}
	if key == "" {
		return dto.CreatePurchaseRequest{}, invalid("invoice_key", "chave de acesso ausente")
	}

	total, err := decimal.NewFromString(wanted["vNF"])
	if err != nil {
		return dto.CreatePurchaseRequest{}, invalid("total_value", "vNF ausente ou inválido")
	}

	issued := now.UTC()
	if raw := wanted["dhEmi"]; raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return dto.CreatePurchaseRequest{}, invalid("issued_at", "dhEmi inválido")
		}
		issued = t.UTC()
	}

	req := dto.CreatePurchaseRequest{
		SupplierName:  wanted["xNome"],
		TaxID:         wanted["CNPJ"],
		TotalValue:    total,
		InvoiceNumber: wanted["nNF"],
		InvoiceKey:    key,
		IssuedAt:      issued,
	}
	if req.SupplierName == "" {
		req.SupplierName = nfeUnknownSupplier
	}
	if req.InvoiceNumber == "" {
		req.InvoiceNumber = nfeUnknownNumber
	}
	return req, nil
}

// ImportPurchase parses an NF-e upload and appends it as a purchase.
func (s *ledgerService) ImportPurchase(ctx context.Context, actor Actor, r io.Reader) (*dto.AppendResponse, error) {
	req, err := ParseNFe(r, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.RecordPurchase(ctx, actor, req)
}
