package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CodigosDeSalida(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "stock.txt")
	require.NoError(t, os.WriteFile(txt, []byte("sku,type,quantity\n"), 0o600))

	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{name: "sin argumentos", args: nil, code: 2},
		{name: "sin usuario", args: []string{"-file", txt}, code: 2},
		{name: "bandera desconocida", args: []string{"-x"}, code: 2},
		{name: "archivo inexistente", args: []string{"-file", filepath.Join(dir, "no.csv"), "-user", "a@kho.vn"}, code: 1, stderr: "Leer"},
		{name: "formato desconocido", args: []string{"-file", txt, "-user", "a@kho.vn"}, code: 1, stderr: "formato desconocido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, run(tt.args, &stdout, &stderr))
			assert.Contains(t, stderr.String(), tt.stderr)
			assert.Empty(t, stdout.String())
		})
	}
}
