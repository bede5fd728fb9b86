package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"[BEST] Arsenal Script 2024":      "Arsenal Script",
		"Blox Fruits (OP) Auto Farm FREE": "Blox Fruits Auto Farm",
		"Universal ESP | ScriptBlox":      "ESP |",
		"Bestiary Helper":                 "Bestiary Helper",
		"":                                "",
	}
	for in, want := range cases {
		require.Equal(t, want, CleanTitle(in), in)
	}
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "Arsenal", CleanText("Arsenal rscripts"))
	require.Equal(t, "Hub for every game", CleanText("Universal Hub for every game"))
}

func TestResolveURL(t *testing.T) {
	require.Equal(t, "https://rscripts.net/img/a.png", ResolveURL("https://rscripts.net", "/img/a.png", "fb"))
	require.Equal(t, "https://cdn.test/a.png", ResolveURL("https://rscripts.net", "https://cdn.test/a.png", "fb"))
	require.Equal(t, "fb", ResolveURL("https://rscripts.net", " ", "fb"))
}

func TestPayloadFrom(t *testing.T) {
	require.Equal(t, "print(1)", payloadFrom("https://r.test", "print(1)", "/raw/x"))
	require.Equal(t, `loadstring(game:HttpGet("https://r.test/raw/x"))()`, payloadFrom("https://r.test/", "", "/raw/x"))
	require.Equal(t, `loadstring(game:HttpGet("https://cdn.test/x.lua"))()`, payloadFrom("https://r.test", "", "https://cdn.test/x.lua"))
	require.Equal(t, "", payloadFrom("https://r.test", "", ""))
}

func TestFlexibleNumbers(t *testing.T) {
	var v struct {
		ID    flexString `json:"id"`
		Views flexInt    `json:"views"`
		Other flexInt    `json:"other"`
		Null  flexString `json:"null"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id": 123, "views": "42", "other": "n/a", "null": null}`), &v))
	require.Equal(t, flexString("123"), v.ID)
	require.Equal(t, flexInt(42), v.Views)
	require.Equal(t, flexInt(0), v.Other)
	require.Equal(t, flexString(""), v.Null)
}

func TestExecutorNames(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, executorNames(json.RawMessage(`["a","b"]`)))
	require.Equal(t, []string{"Delta"}, executorNames(json.RawMessage(`[{"name":"Delta"},{}]`)))
	require.Equal(t, []string{"Delta", "Fluxus", "Wave"},
		executorNames(json.RawMessage(`[{"name":"Delta"},{"name":"Fluxus"},{"title":"Wave"}]`)))
	require.Nil(t, executorNames(json.RawMessage(`[{}]`)))
	require.Nil(t, executorNames(json.RawMessage(`{"name":"Delta"}`)))
	require.Nil(t, executorNames(nil))
}
