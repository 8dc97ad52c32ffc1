package value

// Capability is a closed enumeration of gated features. Access is decided by
// an exhaustive switch so an unknown capability is a compile-time concern,
// not a silent string-matrix miss.
type Capability int

const (
	CapabilityHideWatermark Capability = iota
	CapabilityCustomBranding
	CapabilityRemoteControl
	CapabilityPublicBidding
	CapabilitySilentMode
	CapabilityUnlimitedItems
	CapabilityAnalytics
)

// FreeItemLimit is the item cap for accounts without CapabilityUnlimitedItems.
const FreeItemLimit = 10

// Allows reports whether a tier qualifies for the capability. Status is
// checked by the caller; this is the tier matrix only.
func (c Capability) Allows(tier Tier) bool {
	switch c {
	case CapabilityHideWatermark,
		CapabilityCustomBranding,
		CapabilityRemoteControl,
		CapabilityPublicBidding,
		CapabilitySilentMode,
		CapabilityUnlimitedItems:
		return tier == TierPro || tier == TierEvent
	case CapabilityAnalytics:
		return tier == TierPro
	}

	return false
}

func (c Capability) String() string {
	switch c {
	case CapabilityHideWatermark:
		return "hide_watermark"
	case CapabilityCustomBranding:
		return "custom_branding"
	case CapabilityRemoteControl:
		return "remote_control"
	case CapabilityPublicBidding:
		return "public_bidding"
	case CapabilitySilentMode:
		return "silent_mode"
	case CapabilityUnlimitedItems:
		return "unlimited_items"
	case CapabilityAnalytics:
		return "analytics"
	}

	return "unknown"
}
