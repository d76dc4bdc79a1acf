package utils

import (
	"mime"
	"net/http"
	"strings"
	"unicode"
)

// SanitizeInput remove caracteres de controle e colapsa espaços repetidos.
// Esta é uma sanitização básica para campos de texto livre (nome, rua, cidade).
// A saída HTML continua sendo escapada pelo html/template.
func SanitizeInput(inputStr string) string {
	if inputStr == "" {
		return ""
	}
	var sb strings.Builder
	lastWasSpace := false
	for _, r := range inputStr {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				sb.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			sb.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// NormalizeEmail remove espaços e converte o e-mail para minúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveContentType devolve o MIME type de um arquivo enviado.
// Usa o Content-Type declarado pelo navegador; quando ausente ou genérico, detecta pelo conteúdo.
func ResolveContentType(declared string, data []byte) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return strings.ToLower(mediaType)
		}
	}
	if len(data) == 0 {
		return ""
	}
	detected := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		return mediaType
	}
	return detected
}
