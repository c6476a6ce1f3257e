package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildVersionPrefersLdflags(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	version = "v1.2.3"
	if got := buildVersion(); got != "v1.2.3" {
		t.Errorf("buildVersion() = %q, want v1.2.3", got)
	}
}

func TestVersionCommandVerbose(t *testing.T) {
	t.Cleanup(func() { versionVerbose = false })

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })
	versionVerbose = true
	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	if !strings.HasPrefix(out, "prepday ") {
		t.Errorf("output %q should start with the program name", out)
	}
	if !strings.Contains(out, "catalog: 28 modules in 7 parts") {
		t.Errorf("output %q missing catalog summary", out)
	}
}
