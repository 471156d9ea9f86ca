package authority

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// upo is the subset of the proof-of-receipt (UPO) document that is checked.
// Element names match the authority's Potwierdzenie structure; namespaces
// are ignored.
type upo struct {
	XMLName         xml.Name `xml:"Potwierdzenie"`
	ReceiverName    string   `xml:"NazwaPodmiotuPrzyjmujacego"`
	ReferenceNumber string   `xml:"NumerReferencyjny"`
	DocumentDigest  string   `xml:"SkrotZlozonejStruktury"`
	FormCode        string   `xml:"KodFormularza"`
	ReceivedAt      string   `xml:"DataWplyniecia"`
	OfficeCode      string   `xml:"KodUrzedu"`
}

var receivedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ProofParser implements ports.ProofParser for UPO documents.
type ProofParser struct{}

func (ProofParser) ParseProof(raw []byte) (domain.Proof, error) {
	var doc upo
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return domain.Proof{}, domain.NewValidation("proof", "malformed proof of receipt: %v", err)
	}
	ref := strings.TrimSpace(doc.ReferenceNumber)
	if ref == "" {
		return domain.Proof{}, domain.NewValidation("proof", "proof of receipt has no reference number")
	}

	var received time.Time
	if s := strings.TrimSpace(doc.ReceivedAt); s != "" {
		var err error
		for _, layout := range receivedLayouts {
			if received, err = time.Parse(layout, s); err == nil {
				break
			}
		}
		if err != nil {
			return domain.Proof{}, domain.NewValidation("proof", "unreadable receipt time %q", s)
		}
	}

	return domain.Proof{
		ReferenceNumber: ref,
		DocumentDigest:  strings.ToLower(strings.TrimSpace(doc.DocumentDigest)),
		ReceivedAt:      received.UTC(),
		OfficeCode:      strings.TrimSpace(doc.OfficeCode),
		Raw:             append([]byte(nil), raw...),
	}, nil
}

// ProofDocument renders a UPO for the given values. The test gateway and
// the authority simulator use it.
func ProofDocument(ref, digest, officeCode string, received time.Time) []byte {
	out, err := xml.MarshalIndent(upo{
		ReceiverName:    "Ministerstwo Finansów",
		ReferenceNumber: ref,
		DocumentDigest:  digest,
		FormCode:        "JPK_V7M",
		ReceivedAt:      received.UTC().Format(time.RFC3339),
		OfficeCode:      officeCode,
	}, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("authority: marshal proof: %v", err))
	}
	return append([]byte(xml.Header), out...)
}
