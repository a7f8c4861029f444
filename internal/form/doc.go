// Package form drives the add-device form lifecycle and its
// required-field validation.
package form
