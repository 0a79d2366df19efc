package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// returnState is the base64-JSON payload round-tripped through the OAuth
// state parameter. ID makes each authorization request unique;
// ReturnPathname brings the user back to where they started.
type returnState struct {
	ID             string `json:"id"`
	ReturnPathname string `json:"returnPathname,omitempty"`
}

func encodeReturnState(r *http.Request) string {
	pathname := "/"
	if r != nil && r.URL != nil {
		pathname = r.URL.Path
		if r.URL.RawQuery != "" {
			pathname += "?" + r.URL.RawQuery
		}
	}
	payload, _ := json.Marshal(returnState{
		ID:             uuid.NewString(),
		ReturnPathname: pathname,
	})
	return base64.URLEncoding.EncodeToString(payload)
}

// decodeReturnPathname extracts the return pathname from a state value,
// defaulting to "/" for absent or malformed state.
func decodeReturnPathname(state string) string {
	if state == "" {
		return "/"
	}
	raw, err := base64.URLEncoding.DecodeString(state)
	if err != nil {
		if raw, err = base64.RawURLEncoding.DecodeString(state); err != nil {
			return "/"
		}
	}
	var decoded returnState
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.ReturnPathname == "" {
		return "/"
	}
	return decoded.ReturnPathname
}
