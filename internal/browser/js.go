package browser

import (
	"encoding/json"
	"fmt"
	"strconv"

	"d2ldates/internal/listing"
)

// markAttr tags the trigger element found by the discovery script so the
// activation step can address exactly that node.
const markAttr = "data-d2ldates-mark"

// jsArg JSON-encodes a value for splicing into a script. Marshal output is
// a valid JS literal for strings, numbers, bools, and arrays.
func jsArg(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// dateishJS mirrors listing.LooksLikeDateCell for in-page filtering.
const dateishJS = `
	const dateish = (t) => {
		t = (t || "").trim();
		if (t === "" || t === "-") return true;
		if (t.startsWith("No ") && t.endsWith("date")) return true;
		return /20\d\d|\d+\/\d+|AM|PM/.test(t.toUpperCase());
	};`

// frameDocJS resolves the nth iframe under the open dialog (falling back
// to the whole document) and returns its contentDocument, or null when the
// frame is missing or cross-origin.
const frameDocJS = `
	const frameDoc = (idx) => {
		const dlg = document.querySelector("div[role='dialog'], [role='dialog'], div.d2l-dialog");
		const scope = dlg || document;
		const frames = scope.querySelectorAll("iframe");
		const f = frames[idx];
		if (!f) return null;
		try { return f.contentDocument; } catch (e) { return null; }
	};`

// rowsScript lists every name cell on the page in document order. Ordinals
// index that cell list; all later scripts address rows the same way.
func rowsScript() string {
	return `(() => {
	const out = [];
	document.querySelectorAll("td[class*='d_dg_col_Name']").forEach((cell, i) => {
		out.push({ ordinal: i, label: (cell.textContent || "").trim() });
	});
	return out;
})()`
}

type triggerStep struct {
	Sel    string `json:"sel"`
	Filter bool   `json:"filter"`
}

// triggerLadder builds the per-kind selector ladder: exact edit-link
// titles first, then the kind's column cells, then generic inline links
// gated by the date-ish text filter.
func triggerLadder(spec listing.KindSpec) []triggerStep {
	var steps []triggerStep
	for _, title := range spec.TriggerTitles {
		steps = append(steps, triggerStep{Sel: fmt.Sprintf("a[title='%s']", title)})
	}
	for _, frag := range spec.ColumnFragments {
		steps = append(steps, triggerStep{Sel: fmt.Sprintf("td[class*='%s'] a", frag), Filter: true})
	}
	steps = append(steps,
		triggerStep{Sel: "a.d2l-link-inline", Filter: true},
		triggerStep{Sel: "a", Filter: true},
	)
	return steps
}

// findTriggerScript locates the edit link for one kind inside the row that
// owns name cell ordinal, clears any stale mark, and marks the match.
func findTriggerScript(ordinal int, spec listing.KindSpec, mark string) string {
	return fmt.Sprintf(`(() => {%s
	const cells = document.querySelectorAll("td[class*='d_dg_col_Name']");
	const cell = cells[%d];
	if (!cell) return { found: false, reason: "row is no longer on the page" };
	const row = cell.closest("tr");
	if (!row) return { found: false, reason: "name cell has no row" };
	const ladder = %s;
	for (const step of ladder) {
		for (const el of row.querySelectorAll(step.sel)) {
			if (step.filter && !dateish(el.textContent)) continue;
			document.querySelectorAll("[%s]").forEach((old) => old.removeAttribute("%s"));
			el.setAttribute("%s", %s);
			return { found: true, text: (el.textContent || "").trim(), via: step.sel };
		}
	}
	return { found: false, reason: "no edit link in the row" };
})()`, dateishJS, ordinal, jsArg(triggerLadder(spec)), markAttr, markAttr, markAttr, jsArg(mark))
}

// clickMarkedScript clicks the marked trigger from script, the fallback
// when a native click is intercepted by an overlay.
func clickMarkedScript(mark string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector("[%s=%s]");
	if (!el) return false;
	el.scrollIntoView({ block: "center" });
	el.click();
	return true;
})()`, markAttr, jsArg(mark))
}

// dialogFrameCountScript counts iframes under the open dialog.
func dialogFrameCountScript() string {
	return `(() => {
	const dlg = document.querySelector("div[role='dialog'], [role='dialog'], div.d2l-dialog");
	const scope = dlg || document;
	return scope.querySelectorAll("iframe").length;
})()`
}

// frameProbeScript checks one frame for the date input cluster.
func frameProbeScript(frame int) string {
	return fmt.Sprintf(`(() => {%s
	const d = frameDoc(%d);
	if (!d) return { accessible: false, hasInputs: false };
	const n = d.querySelectorAll("input[name*='$year'], input[name*='$month'], input[name*='$day']").length;
	return { accessible: true, hasInputs: n > 0 };
})()`, frameDocJS, frame)
}

// toggleStateScript reads the has-date checkbox in a frame.
func toggleStateScript(frame int, toggleID string) string {
	return fmt.Sprintf(`(() => {%s
	const d = frameDoc(%d);
	if (!d) return { found: false, checked: false };
	const cb = d.getElementById(%s);
	if (!cb) return { found: false, checked: false };
	return { found: true, checked: !!cb.checked };
})()`, frameDocJS, frame, jsArg(toggleID))
}

// setToggleScript enables the has-date checkbox. The scripted variant
// mutates checked and dispatches input/change so the page's listeners
// reveal the fields; the plain variant clicks the element.
func setToggleScript(frame int, toggleID string, viaScript bool) string {
	action := `cb.click();`
	if viaScript {
		action = `cb.checked = true;
	cb.dispatchEvent(new Event("input", { bubbles: true }));
	cb.dispatchEvent(new Event("change", { bubbles: true }));`
	}
	return fmt.Sprintf(`(() => {%s
	const d = frameDoc(%d);
	if (!d) return false;
	const cb = d.getElementById(%s);
	if (!cb) return false;
	%s
	return true;
})()`, frameDocJS, frame, jsArg(toggleID), action)
}

// fillDateScript writes month/day/year into the frame's date inputs,
// dispatching input/change per field so the page registers the edit.
func fillDateScript(frame, year, month, day int) string {
	return fmt.Sprintf(`(() => {%s
	const d = frameDoc(%d);
	if (!d) return false;
	const y = d.querySelector("input[name*='$year']");
	const m = d.querySelector("input[name*='$month']");
	const dd = d.querySelector("input[name*='$day']");
	if (!y || !m || !dd) return false;
	const set = (el, v) => {
		el.value = v;
		el.dispatchEvent(new Event("input", { bubbles: true }));
		el.dispatchEvent(new Event("change", { bubbles: true }));
	};
	set(m, %s);
	set(dd, %s);
	set(y, %s);
	return true;
})()`, frameDocJS, frame,
		jsArg(strconv.Itoa(month)), jsArg(strconv.Itoa(day)), jsArg(strconv.Itoa(year)))
}

// fillClockScript writes hour/minute into the frame's time inputs.
func fillClockScript(frame, hour, minute int) string {
	return fmt.Sprintf(`(() => {%s
	const d = frameDoc(%d);
	if (!d) return false;
	const h = d.querySelector("input[name*='$hour']");
	const mm = d.querySelector("input[name*='$minute']");
	if (!h || !mm) return false;
	const set = (el, v) => {
		el.value = v;
		el.dispatchEvent(new Event("input", { bubbles: true }));
		el.dispatchEvent(new Event("change", { bubbles: true }));
	};
	set(h, %s);
	set(mm, %s);
	return true;
})()`, frameDocJS, frame,
		jsArg(fmt.Sprintf("%02d", hour)), jsArg(fmt.Sprintf("%02d", minute)))
}

// commitScript walks the save-button ladder: a visible button whose text
// is exactly "Save", then the first button in the dialog footer, then any
// visible button containing "Save".
func commitScript() string {
	return `(() => {
	const visible = (el) => !!el && el.offsetParent !== null && !el.disabled;
	const byText = (exact) => {
		for (const b of document.querySelectorAll("button")) {
			if (!visible(b)) continue;
			const t = (b.textContent || "").trim();
			if (exact ? t === "Save" : t.includes("Save")) return b;
		}
		return null;
	};
	let btn = byText(true);
	let via = "save";
	if (!btn) {
		const footer = document.querySelector("div.ddial_o");
		if (footer) {
			const b = footer.querySelector("button");
			if (visible(b)) { btn = b; via = "footer"; }
		}
	}
	if (!btn) { btn = byText(false); via = "contains"; }
	if (!btn) return { clicked: false, via: "" };
	btn.click();
	return { clicked: true, via };
})()`
}
