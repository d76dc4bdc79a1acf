package utils

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	nonDigitRegex = regexp.MustCompile(`\D`)

	cpfGroupRegex = regexp.MustCompile(`(\d{3})(\d)`)
	cpfTailRegex  = regexp.MustCompile(`(\d{3})(\d{1,2})$`)

	phoneAreaRegex = regexp.MustCompile(`(\d{2})(\d)`)
	phoneBodyRegex = regexp.MustCompile(`(\d{5})(\d)`)

	completeZipRegex = regexp.MustCompile(`^[0-9]{5}-[0-9]{3}$`)
)

const maxMaskedPhoneLen = 15

// OnlyDigits remove tudo que não for dígito.
func OnlyDigits(value string) string {
	return nonDigitRegex.ReplaceAllString(value, "")
}

// MaskCPF formata um CPF como 000.000.000-00, aceitando entradas parciais.
func MaskCPF(value string) string {
	masked := OnlyDigits(value)
	masked = replaceFirst(cpfGroupRegex, masked, "${1}.${2}")
	masked = replaceFirst(cpfGroupRegex, masked, "${1}.${2}")
	return replaceFirst(cpfTailRegex, masked, "${1}-${2}")
}

// MaskPhone formata um telefone como (00) 00000-0000. A saída nunca passa de 15 caracteres.
func MaskPhone(value string) string {
	if value == "" {
		return ""
	}
	masked := OnlyDigits(value)
	masked = replaceFirst(phoneAreaRegex, masked, "(${1}) ${2}")
	masked = replaceFirst(phoneBodyRegex, masked, "${1}-${2}")
	if len(masked) > maxMaskedPhoneLen {
		masked = masked[:maxMaskedPhoneLen]
	}
	return masked
}

// ApplyZipMask formata um CEP como 00000-000. Com 5 dígitos ou menos devolve só os dígitos.
func ApplyZipMask(value string) string {
	digits := OnlyDigits(value)
	if len(digits) <= 5 {
		return digits
	}
	end := len(digits)
	if end > 8 {
		end = 8
	}
	return digits[:5] + "-" + digits[5:end]
}

// IsCompleteZip indica se o CEP mascarado está completo (00000-000).
func IsCompleteZip(masked string) bool {
	return len(masked) == 9 && completeZipRegex.MatchString(masked)
}

// IsAdult indica se quem nasceu em `birth` já completou 18 anos em `now`.
// A idade é calculada pelo calendário: o aniversário do ano corrente precisa ter passado.
func IsAdult(birth, now time.Time) bool {
	return AgeAt(birth, now) >= 18
}

// AgeAt calcula a idade completa em anos.
func AgeAt(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.In(birth.Location()).Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

// NormalizeUF normaliza a sigla do estado (ex: " rs " -> "RS").
func NormalizeUF(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// IsDigits indica se a string é não vazia e só contém dígitos ASCII.
func IsDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// replaceFirst substitui apenas a primeira ocorrência de `re` em `s`.
func replaceFirst(re *regexp.Regexp, s, template string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	var dst []byte
	dst = re.ExpandString(dst, template, s, loc)
	return s[:loc[0]] + string(dst) + s[loc[1]:]
}

// RedactCPF oculta o CPF mantendo apenas os dois últimos dígitos (ex: ***.***.***-01).
func RedactCPF(value string) string {
	digits := OnlyDigits(value)
	if len(digits) < 2 {
		return "***"
	}
	return "***.***.***-" + digits[len(digits)-2:]
}

// RedactEmail oculta a parte local do email mantendo a primeira letra (ex: j***@x.com).
func RedactEmail(value string) string {
	at := strings.LastIndex(value, "@")
	if at <= 0 {
		return "***"
	}
	return value[:1] + "***" + value[at:]
}
