package passbolt

import (
	"encoding/base64"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientConfig is the extension profile seeded through the debug page. The
// JSON names are the ones the debug page reads.
type ClientConfig struct {
	BaseURL                string `json:"baseUrl"`
	UserID                 string `json:"UserId"`
	ProfileFirstName       string `json:"ProfileFirstName"`
	ProfileLastName        string `json:"ProfileLastName"`
	UserUsername           string `json:"UserUsername"`
	SecurityTokenCode      string `json:"securityTokenCode"`
	SecurityTokenColor     string `json:"securityTokenColor"`
	SecurityTokenTextColor string `json:"securityTokenTextColor"`
	MyKeyASCII             string `json:"myKeyAscii"`
	ServerKeyASCII         string `json:"serverKeyAscii"`
}

// Encode returns base64(JSON), the form #js_auto_settings expects.
func (c ClientConfig) Encode() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal client config: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeClientConfig reverses Encode.
func DecodeClientConfig(s string) (ClientConfig, error) {
	var c ClientConfig
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("client config is not base64: %w", err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("client config is not JSON: %w", err)
	}
	return c, nil
}

// fields lists the debug page inputs in the order the manual form is filled.
func (c ClientConfig) fields() [][2]string {
	return [][2]string{
		{"baseUrl", c.BaseURL},
		{"UserId", c.UserID},
		{"ProfileFirstName", c.ProfileFirstName},
		{"ProfileLastName", c.ProfileLastName},
		{"UserUsername", c.UserUsername},
		{"securityTokenCode", c.SecurityTokenCode},
		{"securityTokenColor", c.SecurityTokenColor},
		{"securityTokenTextColor", c.SecurityTokenTextColor},
		{"myKeyAscii", c.MyKeyASCII},
		{"serverKeyAscii", c.ServerKeyASCII},
	}
}
