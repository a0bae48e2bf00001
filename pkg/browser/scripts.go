package browser

import (
	"encoding/json"
	"fmt"
)

const (
	MarkerSelector  = "s4s-profile-init"
	ContentSelector = "div.eurobonus-content"

	containerID = "ebcrawler"
	triggerID   = "ebcrawler-trigger"
	outputID    = "eurobonuscsv"
	bindingName = "ebcrawlerExport"

	linkText = "Download CSV"

	statusOK              = "ok"
	statusNoContentRegion = "no-content-region"
)

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func readyScript() string {
	return fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(MarkerSelector))
}

func mountScript(label string) string {
	return fmt.Sprintf(`(() => {
	const marker = document.querySelector(%[1]s);
	if (!marker) {
		return false;
	}
	let section = document.getElementById(%[2]s);
	if (!section) {
		section = document.createElement('section');
		section.id = %[2]s;
		const button = document.createElement('button');
		button.id = %[3]s;
		button.addEventListener('click', () => window[%[4]s]('click'));
		section.appendChild(button);
		marker.insertBefore(section, marker.firstChild);
	}
	document.getElementById(%[3]s).innerText = %[5]s;
	return true;
})()`, jsString(MarkerSelector), jsString(containerID), jsString(triggerID), jsString(bindingName), jsString(label))
}

func labelScript(label string) string {
	return fmt.Sprintf(`(() => {
	const button = document.getElementById(%s);
	if (!button) {
		return false;
	}
	button.innerText = %s;
	return true;
})()`, jsString(triggerID), jsString(label))
}

const profileScript = `(async () => JSON.stringify(await new S4SProfileInfo().loadProfileInfo()))()`

// downloadScript replaces whatever the output section held with a fresh link
// to uri and clicks it.
func downloadScript(filename, uri string) string {
	return fmt.Sprintf(`(() => {
	let section = document.getElementById(%[1]s);
	if (!section) {
		const content = document.querySelector(%[2]s);
		if (!content) {
			return %[3]s;
		}
		section = document.createElement('section');
		section.id = %[1]s;
		content.append(section);
	}
	section.innerHTML = '';
	const link = document.createElement('a');
	link.innerText = %[4]s;
	link.href = %[5]s;
	link.download = %[6]s;
	section.appendChild(link);
	link.click();
	return %[7]s;
})()`, jsString(outputID), jsString(ContentSelector), jsString(statusNoContentRegion),
		jsString(linkText), jsString(uri), jsString(filename), jsString(statusOK))
}

// alertScript defers the dialog so the evaluation returns before it blocks.
func alertScript(message string) string {
	return fmt.Sprintf(`(() => { setTimeout(() => window.alert(%s), 0); return true; })()`, jsString(message))
}
