package admin

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const (
	flashCookie = "flash"
	// maxFlashSize ограничение размера cookie, при превышении данные отбрасываются
	maxFlashSize = 3800
)

// Flash одноразовое состояние, переживающее один редирект
type Flash struct {
	Success string            `json:"success,omitempty"`
	Error   string            `json:"error,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// SetFlash сохраняет flash в cookie до следующего запроса
func SetFlash(w http.ResponseWriter, flash *Flash) error {
	value, err := encodeFlash(flash)
	if err != nil {
		return err
	}
	if len(value) > maxFlashSize {
		trimmed := *flash
		trimmed.Data = nil
		if value, err = encodeFlash(&trimmed); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// TakeFlash читает flash из запроса и сразу удаляет cookie.
// Отсутствующий или поврежденный flash дает nil.
func TakeFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash Flash
	if err := json.Unmarshal(raw, &flash); err != nil {
		return nil
	}
	return &flash
}

func encodeFlash(flash *Flash) (string, error) {
	raw, err := json.Marshal(flash)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
