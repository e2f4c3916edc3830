package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportedName(t *testing.T) {
	tests := map[string]string{
		"id":               "Id",
		"Id":               "Id",
		"shipping_address": "ShippingAddress",
		"first-name":       "FirstName",
		"tags":             "Tags",
		"2fa":              "X2fa",
		"":                 "X",
		"__":               "X",
		"élan":             "Élan",
	}

	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, ExportedName(input))
		})
	}
}
