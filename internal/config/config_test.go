package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", c.ListenAddr)
	assert.Equal(t, 60.0, c.PassMark)
	assert.Equal(t, 20.0, c.DistributionWidth)
	assert.Equal(t, "sequential", c.TiePolicy)
	assert.Equal(t, "高一年级", c.DefaultClass)
	assert.Equal(t, "学生%d", c.NameFallback)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "gb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pass_mark: 72\ntie_policy: competition\nlisten_addr: \":9000\"\n"), 0o644))
	t.Setenv("GRADEBOARD_LISTEN_ADDR", ":9100")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 72.0, c.PassMark)
	assert.Equal(t, "competition", c.TiePolicy)
	assert.Equal(t, ":9100", c.ListenAddr)

	opt, err := c.AnalysisOptions()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, opt.Ranks([]float64{5, 5}))
}

func TestLoad_RejectsInvalid(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tie_policy: dense\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tie_policy")
}

func TestSetAndSave(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c := Default()

	require.NoError(t, c.Set("pass_mark", "65"))
	require.NoError(t, c.Set("log_format", "JSON"))
	assert.Error(t, c.Set("max_upload_mb", "lots"))
	assert.Error(t, c.Set("name_fallback", "Student"))
	require.NoError(t, c.Set("name_fallback", "Student %d"))
	assert.Error(t, c.Set("nope", "1"))

	require.NoError(t, Save(c, ""))
	path, err := DefaultPath()
	require.NoError(t, err)
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 65.0, loaded.PassMark)
	assert.Equal(t, "json", loaded.LogFormat)
	assert.Equal(t, "Student %d", loaded.NameFallback)

	v, err := loaded.Get("pass_mark")
	require.NoError(t, err)
	assert.Equal(t, "65", v)
}

func TestDefault_MatchesAnalysisDefaults(t *testing.T) {
	c := Default()
	opt, err := c.AnalysisOptions()
	require.NoError(t, err)
	d := analysis.DefaultOptions()
	assert.Equal(t, d.PassMark, opt.PassMark)
	assert.Equal(t, d.BandWidth, opt.BandWidth)
	assert.Equal(t, d.DefaultClass, opt.DefaultClass)
	assert.Equal(t, d.NameFallback, opt.NameFallback)
	assert.NoError(t, c.Validate())
}
