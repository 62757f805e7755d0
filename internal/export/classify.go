package export

import "github.com/local/miroexport/internal/pagesource"

// Pages whose raster share is below this fraction get the vector path.
const vectorRatioThreshold = 0.4

// IsVectorHeavy decides whether a page is dominated by drawings/text rather
// than embedded raster images. Pure function of the page stats.
func IsVectorHeavy(st pagesource.Stats) bool {
	if st.Images == 0 {
		return true
	}
	vectorElements := st.Drawings
	if st.HasText {
		vectorElements++
	}
	if vectorElements == 0 {
		return false
	}
	ratio := float64(st.Images) / float64(st.Images+vectorElements)
	return ratio < vectorRatioThreshold
}
