package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"valid", RegisterRequest{Email: "driver@example.com", Password: "Passw0rd!", FullName: "Nguyen Van A"}, false},
		// chỉ check format, không tra MX: domain không resolve vẫn hợp lệ
		{"well-formed address on unresolvable domain", RegisterRequest{Email: "driver@charging.invalid", Password: "Passw0rd!", FullName: "Nguyen Van A"}, false},
		{"malformed email", RegisterRequest{Email: "driver-at-example", Password: "Passw0rd!", FullName: "Nguyen Van A"}, true},
		{"weak password", RegisterRequest{Email: "driver@example.com", Password: "password", FullName: "Nguyen Van A"}, true},
		{"short name", RegisterRequest{Email: "driver@example.com", Password: "Passw0rd!", FullName: "A"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "staff@charging.invalid", Password: "x"}.Validate())
	assert.Error(t, LoginRequest{Email: "not an email", Password: "x"}.Validate())
	assert.Error(t, LoginRequest{Email: "staff@example.com"}.Validate())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "driver@example.com", NormalizeEmail("  Driver@Example.COM "))
}
