package tokens

import (
	"time"
)

// Issuer signs and verifies access and refresh tokens. The two kinds never
// share a secret or a lifetime.
type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Now:           time.Now,
	}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

func (i *Issuer) IssueAccess(sub Subject) (Token, error) {
	return Sign(sub, KindAccess, i.AccessSecret, i.AccessTTL, i.now())
}

func (i *Issuer) IssueRefresh(sub Subject) (Token, error) {
	return Sign(sub, KindRefresh, i.RefreshSecret, i.RefreshTTL, i.now())
}

func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return Parse(raw, KindAccess, i.AccessSecret, i.now())
}

func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return Parse(raw, KindRefresh, i.RefreshSecret, i.now())
}
