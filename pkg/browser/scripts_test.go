package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSString(t *testing.T) {
	assert.Equal(t, `"it's \"quoted\"\n"`, jsString("it's \"quoted\"\n"))
}

func TestMountScript(t *testing.T) {
	script := mountScript("Download EB history")

	assert.Contains(t, script, `document.querySelector("s4s-profile-init")`)
	assert.Contains(t, script, `marker.insertBefore(section, marker.firstChild)`)
	assert.Contains(t, script, `window["ebcrawlerExport"]('click')`)
	assert.Contains(t, script, `.innerText = "Download EB history"`)
}

func TestLabelScript(t *testing.T) {
	script := labelScript("Downloading, please wait, this is slow...")
	assert.Contains(t, script, `document.getElementById("ebcrawler-trigger")`)
	assert.Contains(t, script, `"Downloading, please wait, this is slow..."`)
}

func TestDownloadScriptReplacesOutput(t *testing.T) {
	script := downloadScript("eb.csv", "data:text/csv;base64,RGF0ZQ==")

	assert.Contains(t, script, `document.getElementById("eurobonuscsv")`)
	assert.Contains(t, script, `document.querySelector("div.eurobonus-content")`)
	assert.Contains(t, script, `link.href = "data:text/csv;base64,RGF0ZQ=="`)
	assert.Contains(t, script, `link.download = "eb.csv"`)

	clear := strings.Index(script, `section.innerHTML = ''`)
	appendLink := strings.Index(script, `section.appendChild(link)`)
	assert.True(t, clear >= 0 && clear < appendLink, "previous output is cleared before the new link is added")
	assert.Contains(t, script, `return "no-content-region"`)
}

func TestAlertScript(t *testing.T) {
	script := alertScript(`Unknown points type: "bonus"`)
	assert.Contains(t, script, `window.alert("Unknown points type: \"bonus\"")`)
	assert.Contains(t, script, "setTimeout")
}
