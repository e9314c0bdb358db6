// Package script generates per-scan sitespeed.io pre-measurement scripts.
package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// overlayRemovalJS runs in the page before measurement and strips
// full-screen overlays (age gates, cookie banners) so they do not distort
// the metrics.
const overlayRemovalJS = `(function() {
  var vw = window.innerWidth, vh = window.innerHeight, removed = 0;

  // Remove fixed/absolute elements with high z-index covering >80% of viewport
  var allEls = document.querySelectorAll('div, section, dialog, aside, [role="dialog"], [role="alertdialog"]');
  for (var i = 0; i < allEls.length; i++) {
    var el = allEls[i], style = window.getComputedStyle(el);
    if (style.display === 'none' || style.visibility === 'hidden') continue;
    if (style.position !== 'fixed' && style.position !== 'absolute') continue;
    var z = parseInt(style.zIndex) || 0;
    if (z < 10) continue;
    var rect = el.getBoundingClientRect();
    if (rect.width >= vw * 0.8 && rect.height >= vh * 0.8) { el.remove(); removed++; }
  }

  // Remove backdrop / overlay elements
  var backdrops = document.querySelectorAll(
    '.modal-backdrop, .overlay-backdrop, .popup-overlay, .popup-voile, ' +
    '[class*="backdrop"], [class*="overlay"]:not(nav):not(header)'
  );
  for (var b = 0; b < backdrops.length; b++) {
    var bs = window.getComputedStyle(backdrops[b]);
    if ((bs.position === 'fixed' || bs.position === 'absolute') && (parseInt(bs.zIndex) || 0) >= 10) {
      backdrops[b].remove(); removed++;
    }
  }

  // Restore scrolling
  document.documentElement.style.overflow = '';
  document.body.style.overflow = '';
  document.documentElement.style.position = '';
  document.body.style.position = '';
  document.body.classList.remove('modal-open', 'no-scroll', 'noscroll', 'overflow-hidden', 'popup-open');

  return removed;
})();`

// AgeGate returns a CommonJS sitespeed.io script that navigates to url,
// waits for overlays to render, removes them, then measures the cleaned
// page without reloading.
func AgeGate(url string) string {
	safeURL := jsStringLiteral(url)
	js := strings.NewReplacer("`", "\\`", "${", "\\${").Replace(overlayRemovalJS)
	return fmt.Sprintf(`'use strict';

module.exports = async function(context, commands) {
  var url = %s;

  // 1. Navigate to the URL (triggers any age gate / overlay)
  await commands.navigate(url);

  // 2. Wait for overlays to fully render
  await commands.wait.byTime(3000);

  // 3. Remove all full-screen overlays from the DOM
  await commands.js.run(`+"`%s`"+`);

  // 4. Brief wait for DOM to settle
  await commands.wait.byTime(1000);

  // 5. Measure the now-clean page (no reload, measures current state)
  return commands.measure.start(url);
};
`, safeURL, js)
}

// jsStringLiteral renders url as a quoted, escaped JS string literal. JSON
// string escaping is valid JS; HTML escaping is disabled so query strings
// keep their literal & rather than &.
func jsStringLiteral(url string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(url)
	return strings.TrimSuffix(buf.String(), "\n")
}
