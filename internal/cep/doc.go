// Package cep holds the domain model shared by every layer of the resolver:
// the normalized Address record, the closed lookup error taxonomy and the
// validation that turns a raw postal code into its canonical 8-digit form.
package cep
