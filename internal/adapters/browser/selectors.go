package browser

// CSS selectors for the map search surface. These track the live page
// markup and are the first place to look when extraction starts missing
// fields.
const (
	mapsHomeURL = "https://www.google.com/maps"

	// Search surface
	searchBoxSelector = `input#searchboxinput`

	// Results feed
	listingLinkSelector = `a[href^="https://www.google.com/maps/place"]`
	resultsFeedSelector = `div[role="feed"]`
	endOfListSelector   = `span.HlvSq`

	// Focused-listing detail panel
	addressSelector = `button[data-item-id="address"] div[class*="fontBodyMedium"]`
	websiteSelector = `a[data-item-id="authority"] div[class*="fontBodyMedium"]`
	phoneSelector   = `button[data-item-id^="phone:tel:"] div[class*="fontBodyMedium"]`
	ratingSelector  = `span[role="img"][aria-label*="stars"]`
)
