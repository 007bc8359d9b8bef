package certificate

import (
	"time"

	"github.com/fiscalmx/cartaporte/internal/types"
)

// Certificate is a digital seal certificate (CSD) record. The private key
// bytes are stored exactly as supplied, still protected by the holder's
// passphrase; the passphrase itself is never persisted.
type Certificate struct {
	ID           string    `json:"id"`
	RFC          string    `json:"rfc"`
	SerialNumber string    `json:"serial_number"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`

	// CertificateDER is the raw public certificate in DER form
	CertificateDER []byte `json:"-"`
	// EncryptedKeyDER is the passphrase-protected PKCS#8 private key blob
	EncryptedKeyDER []byte `json:"-"`

	// Active marks the one certificate used for signing; at most one per
	// tenant at any time
	Active bool `json:"active"`

	types.BaseModel
}

// Clone returns a deep copy of the record. Cached and stored instances are
// never handed out directly, so a caller mutation cannot leak back.
func (c *Certificate) Clone() *Certificate {
	out := *c

	if c.CertificateDER != nil {
		out.CertificateDER = make([]byte, len(c.CertificateDER))
		copy(out.CertificateDER, c.CertificateDER)
	}
	if c.EncryptedKeyDER != nil {
		out.EncryptedKeyDER = make([]byte, len(c.EncryptedKeyDER))
		copy(out.EncryptedKeyDER, c.EncryptedKeyDER)
	}

	return &out
}

// ValidAt reports whether now falls inside the certificate validity window
func (c *Certificate) ValidAt(now time.Time) bool {
	return !now.Before(c.NotBefore) && !now.After(c.NotAfter)
}

// DaysUntilExpiry returns the number of whole or partial days until the
// certificate expires: ceil((notAfter - now) / 24h). Negative when already
// expired.
func (c *Certificate) DaysUntilExpiry(now time.Time) int {
	remaining := c.NotAfter.Sub(now)
	days := remaining / (24 * time.Hour)
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}
