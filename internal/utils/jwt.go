package utils // package utils holds helpers shared by the server and the CLI

import (
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// StaffClaims is the token issued by the operator auth service for
// back-office users.  CompanyID scopes a STAFF user to one bus company;
// ADMIN tokens may omit it.
type StaffClaims struct {
    Role      string `json:"role"`
    CompanyID uint64 `json:"company_id,omitempty"`
    jwt.RegisteredClaims
}

// StaffToken is a signed token along with its expiry.
type StaffToken struct {
    Token string
    Exp   time.Time
}

// NewStaffToken signs an HS256 staff token.  The server only verifies
// tokens; this is used by the busctl CLI to mint tokens for local
// environments and by tests.
func NewStaffToken(secret, subject, role string, companyID uint64, ttl time.Duration) (StaffToken, error) {
    if secret == "" {
        return StaffToken{}, fmt.Errorf("empty signing secret")
    }
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := StaffClaims{
        Role:      role,
        CompanyID: companyID,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   subject,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return StaffToken{}, err
    }
    return StaffToken{Token: signed, Exp: exp}, nil
}

// ParseStaffToken verifies raw against secret and returns its claims.
// Only HS256 is accepted.
func ParseStaffToken(secret, raw string) (*StaffClaims, error) {
    claims := &StaffClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return nil, err
    }
    if !tok.Valid {
        return nil, jwt.ErrTokenInvalidClaims
    }
    return claims, nil
}
