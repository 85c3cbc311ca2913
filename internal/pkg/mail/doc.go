// Package mail sends email. Use cases depend on the Mail interface; SMTP is the
// production transport and Log stands in when no SMTP server is configured.
package mail
