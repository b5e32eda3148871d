package browser

import "fmt"

// JS snippets evaluated in the page. Each returns a JSON-serialisable value
// so chromedp can decode straight into Go types.

const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="I agree"]',
    'button.VfPpkd-LgbsSe-OWXEXe-k8QpJ'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})();`

const scrollScript = `(function () {
  const feed = document.querySelector('` + resultsFeedSelector + `');
  if (feed) {
    feed.scrollBy(0, feed.offsetHeight);
  }
})();`

const countScript = `document.querySelectorAll('` + listingLinkSelector + `').length`

const endOfListScript = `(function () {
  return document.querySelector('` + endOfListSelector + `') !== null;
})();`

// clickListingScript clicks the i-th listing link in DOM order.
func clickListingScript(i int) string {
	return fmt.Sprintf(`(function () {
  const nodes = document.querySelectorAll('%s');
  if (nodes.length <= %d) {
    return false;
  }
  nodes[%d].click();
  return true;
})();`, listingLinkSelector, i, i)
}

// labelScript reads the accessible label of the i-th listing link.
func labelScript(i int) string {
	return fmt.Sprintf(`(function () {
  const nodes = document.querySelectorAll('%s');
  if (nodes.length <= %d) {
    return '';
  }
  return nodes[%d].getAttribute('aria-label') || '';
})();`, listingLinkSelector, i, i)
}

// textFieldScript reads the inner text of the first panel element matching
// sel, reporting whether the element exists at all.
func textFieldScript(sel string) string {
	return fmt.Sprintf(`(function () {
  const node = document.querySelector('%s');
  if (!node) {
    return { found: false, text: '' };
  }
  return { found: true, text: node.textContent.trim() };
})();`, sel)
}

// ratingScript reads the stars aria-label rather than the text content.
const ratingScript = `(function () {
  const node = document.querySelector('` + ratingSelector + `');
  if (!node) {
    return { found: false, text: '' };
  }
  return { found: true, text: node.getAttribute('aria-label') || '' };
})();`

// reviewCountScript hunts the action buttons for an "N reviews" span; the
// map UI gives that span no stable attribute to select on.
const reviewCountScript = `(function () {
  const spans = document.querySelectorAll('button span');
  for (const s of spans) {
    if (/reviews?/i.test(s.textContent)) {
      return { found: true, text: s.textContent.trim() };
    }
  }
  return { found: false, text: '' };
})();`
