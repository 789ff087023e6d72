package webhook

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"ref":"refs/heads/main"}`)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{
			name:    "valid signature",
			header:  Sign(secret, body),
			wantErr: nil,
		},
		{
			name:    "missing header",
			header:  "",
			wantErr: ErrMissingSignature,
		},
		{
			name:    "wrong scheme",
			header:  "sha1=deadbeef",
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "tampered body",
			header:  Sign(secret, []byte(`{"ref":"refs/heads/other"}`)),
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "wrong secret",
			header:  Sign("other-secret", body),
			wantErr: ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(secret, body, tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignFormat(t *testing.T) {
	sig := Sign("secret", []byte("payload"))
	if len(sig) != len("sha256=")+64 {
		t.Errorf("Sign() length = %d, want %d", len(sig), len("sha256=")+64)
	}
	if sig[:7] != "sha256=" {
		t.Errorf("Sign() prefix = %q, want \"sha256=\"", sig[:7])
	}
}
