// Package validator validates request and use case structs.
//
// Besides the go-playground built-ins it registers the rules used by admin
// auth: "identifier" (email, username or 10 digit phone), "digits6" for
// process ids, "digits" for OTP codes, "phone10", "adminname" and "password".
package validator
