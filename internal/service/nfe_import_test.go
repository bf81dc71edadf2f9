package service_test

import (
	"strings"
	"testing"
	"time"

	"chicpos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35260312345678000190550010000015231000015230" versao="4.00">
      <ide>
        <nNF>1523</nNF>
        <dhEmi>2026-03-02T10:30:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>12345678000190</CNPJ>
        <xNome>Malharia Sul LTDA</xNome>
      </emit>
      <dest>
        <CNPJ>98765432000110</CNPJ>
        <xNome>Chic Boutique</xNome>
      </dest>
      <total>
        <ICMSTot>
          <vNF>1890.50</vNF>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
</nfeProc>`

func TestParseNFe_IssuerFieldsWin(t *testing.T) {
	req, err := service.ParseNFe(strings.NewReader(sampleNFe), time.Now())

	require.NoError(t, err)
	assert.Equal(t, "Malharia Sul LTDA", req.SupplierName)
	assert.Equal(t, "12345678000190", req.TaxID)
	assert.Equal(t, "35260312345678000190550010000015231000015230", req.InvoiceKey)
	assert.Equal(t, "1890.5", req.TotalValue.String())
}

func TestParseNFe_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	doc := `<NFe><infNFe Id="NFe123"><emit><CNPJ>1</CNPJ></emit><total><ICMSTot><vNF>10.00</vNF></ICMSTot></total></infNFe></NFe>`

	req, err := service.ParseNFe(strings.NewReader(doc), now)

	require.NoError(t, err)
	assert.Equal(t, "Desconhecido", req.SupplierName)
	assert.Equal(t, "N/A", req.InvoiceNumber)
	assert.Equal(t, "123", req.InvoiceKey)
	assert.True(t, now.Equal(req.IssuedAt))
}

func TestParseNFe_Rejects(t *testing.T) {
	cases := map[string]struct {
		doc   string
		field string
	}{
		"not xml":       {doc: "isto não é xml <", field: "file"},
		"not an nfe":    {doc: `<pedido><numero>1</numero></pedido>`, field: "file"},
		"no access key": {doc: `<NFe><infNFe><total><vNF>1</vNF></total></infNFe></NFe>`, field: "invoice_key"},
		"no total":      {doc: `<NFe><infNFe Id="NFe9"></infNFe></NFe>`, field: "total_value"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := service.ParseNFe(strings.NewReader(tc.doc), time.Now())
			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
}
