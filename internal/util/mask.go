// Package util contiene helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskSubject oculta la parte local y el dominio de un subject con forma de
// email ("alice@example.com" -> "a…@e….com"). Logins, nombres e ids quedan
// igual porque no son datos de contacto.
func MaskSubject(s string) string {
	s = strings.TrimSpace(s)
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return s
	}
	local, domain := s[:at], s[at+1:]

	labels := strings.Split(domain, ".")
	labels[0] = shorten(labels[0])
	return shorten(local) + "@" + strings.Join(labels, ".")
}

// shorten deja la primera runa seguida de "…".
func shorten(s string) string {
	r := []rune(s)
	if len(r) <= 1 {
		return s
	}
	return string(r[0]) + "…"
}
