package config

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sipico/cf-usage-dashboard/internal/cloudflare"
)

// ParseCredential decodes a JSON account-slot value into a credential.
// Slot values look like {"email":"...","key":"..."} or {"token":"...","id":"..."}.
// Unknown fields are ignored; malformed JSON is an error so callers can
// skip the slot.
func ParseCredential(raw string) (cloudflare.Credential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cloudflare.Credential{}, fmt.Errorf("empty credential value")
	}
	if !gjson.Valid(raw) {
		return cloudflare.Credential{}, fmt.Errorf("malformed credential JSON")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return cloudflare.Credential{}, fmt.Errorf("credential value is not a JSON object")
	}

	cred := cloudflare.Credential{
		Email:     parsed.Get("email").String(),
		Key:       parsed.Get("key").String(),
		AccountID: parsed.Get("id").String(),
		APIToken:  parsed.Get("token").String(),
	}
	if cred.Empty() {
		return cloudflare.Credential{}, fmt.Errorf("credential object has no usable fields")
	}
	return cred, nil
}
