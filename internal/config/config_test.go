package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.yaml")
	store := NewStore(path)

	require.NoError(t, store.Save(Default()))

	loaded, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode(t *testing.T) {
	cfg, err := Decode([]byte(`
logging: {level: debug}
adapters:
  - type: websocket
    url: ws://localhost:9000/ws
    service: libera
    protocol: irc
    ping_interval: 5s
mappings:
  - selectors:
      - kind: protocol
        params: {protocol: irc}
    groups: [base]
groups:
  - name: base
    flex:
      dispatcher.invocation: '^!(?<alias>\w+)(?: (?<argument>.*))?$'
      limit: 3
    listeners:
      - form: def
        name: echo
        implementation: echo
        config: {prefix: ">"}
        alias: []
      - form: ref
        name: echo
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Adapters, 1)
	assert.Equal(t, 5*time.Second, cfg.Adapters[0].PingInterval)
	assert.Equal(t, "irc", cfg.Mappings[0].Selectors[0].Params["protocol"])
	assert.Equal(t, 3, cfg.Groups[0].Flex["limit"])

	def := cfg.Groups[0].Listeners[0]
	assert.NotNil(t, def.Alias, "empty alias list must survive decoding")
	assert.Empty(t, def.Alias)
	assert.Equal(t, ">", def.Config["prefix"])
	assert.Nil(t, cfg.Groups[0].Listeners[1].Alias)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Groups)
}

func TestDecodeUnknownField(t *testing.T) {
	_, err := Decode([]byte("groups: [{name: a, colour: red}]"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"level":          "logging: {level: loud}",
		"format":         "logging: {format: xml}",
		"adapter type":   "adapters: [{type: carrier-pigeon}]",
		"websocket url":  "adapters: [{type: websocket}]",
		"mapping groups": "mappings: [{selectors: [{kind: all}]}]",
		"group name":     "groups: [{listeners: []}]",
		"anchor name":    "groups: [{name: a, listeners: [{form: def, implementation: echo}]}]",
		"anchor form":    "groups: [{name: a, listeners: [{form: use, name: x}]}]",
		"def impl":       "groups: [{name: a, listeners: [{form: def, name: x}]}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}
