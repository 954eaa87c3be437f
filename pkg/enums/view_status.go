package enums

// ViewStatus is the load state of a portal view.
type ViewStatus string

const (
	ViewStatusIdle    ViewStatus = "idle"
	ViewStatusLoading ViewStatus = "loading"
	ViewStatusLoaded  ViewStatus = "loaded"
	ViewStatusError   ViewStatus = "error"
)

// String implements fmt.Stringer.
func (v ViewStatus) String() string {
	return string(v)
}

// BannerKind selects the colour of an inline banner.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
	BannerInfo    BannerKind = "info"
)
