package detect

import "regexp"

// Entity labels form a closed whitelist. The regex table below covers the
// subset that has a reliable textual shape; the remaining labels (NAME,
// ADDRESS, free-form PINs, mnemonics...) are only ever produced by the LLM
// detector and are filtered against AllowedLabels at its parser boundary.
const (
	LabelName              = "NAME"
	LabelPhone             = "PHONE"
	LabelEmail             = "EMAIL"
	LabelAddress           = "ADDRESS"
	LabelPostalCode        = "POSTAL_CODE"
	LabelResidentID        = "RESIDENT_ID"
	LabelPassport          = "PASSPORT"
	LabelDriverLicense     = "DRIVER_LICENSE"
	LabelBusinessID        = "BUSINESS_ID"
	LabelCardNumber        = "CARD_NUMBER"
	LabelCardExpiry        = "CARD_EXPIRY"
	LabelCardCVV           = "CARD_CVV"
	LabelBankAccount       = "BANK_ACCOUNT"
	LabelPaymentPIN        = "PAYMENT_PIN"
	LabelMnemonic          = "MNEMONIC"
	LabelCryptoPrivateKey  = "CRYPTO_PRIVATE_KEY"
	LabelHDWallet          = "HD_WALLET"
	LabelPaymentURIQR      = "PAYMENT_URI_QR"
	LabelJWT               = "JWT"
	LabelAPIKey            = "API_KEY"
	LabelGithubPAT         = "GITHUB_PAT"
	LabelPrivateKey        = "PRIVATE_KEY"
	LabelIPv4              = "IPV4"
	LabelIPv6              = "IPV6"
	LabelMACAddress        = "MAC_ADDRESS"
	LabelIMEI              = "IMEI"
	LabelForeignerID       = "FOREIGNER_ID"
	LabelHealthInsuranceID = "HEALTH_INSURANCE_ID"
	LabelMilitaryID        = "MILITARY_ID"
	LabelMobilePaymentPIN  = "MOBILE_PAYMENT_PIN"
	LabelPersonalCustomsID = "PERSONAL_CUSTOMS_ID"
)

// AllowedLabels is the closed whitelist shared by the regex table, the LLM
// detector output filter, and the masking token set.
var AllowedLabels = map[string]bool{
	LabelName: true, LabelPhone: true, LabelEmail: true, LabelAddress: true,
	LabelPostalCode: true, LabelResidentID: true, LabelPassport: true,
	LabelDriverLicense: true, LabelBusinessID: true, LabelCardNumber: true,
	LabelCardExpiry: true, LabelCardCVV: true, LabelBankAccount: true,
	LabelPaymentPIN: true, LabelMnemonic: true, LabelCryptoPrivateKey: true,
	LabelHDWallet: true, LabelPaymentURIQR: true, LabelJWT: true,
	LabelAPIKey: true, LabelGithubPAT: true, LabelPrivateKey: true,
	LabelIPv4: true, LabelIPv6: true, LabelMACAddress: true, LabelIMEI: true,
	LabelForeignerID: true, LabelHealthInsuranceID: true,
	LabelMilitaryID: true, LabelMobilePaymentPIN: true,
	LabelPersonalCustomsID: true,
}

// patternOrder fixes the iteration order of the pattern table so that
// overlap resolution is deterministic: when two candidates cover the same
// range, the earlier-declared label wins.
var patternOrder = []string{
	LabelPrivateKey,
	LabelJWT,
	LabelGithubPAT,
	LabelAPIKey,
	LabelHDWallet,
	LabelCryptoPrivateKey,
	LabelPaymentURIQR,
	LabelEmail,
	LabelResidentID,
	LabelForeignerID,
	LabelDriverLicense,
	LabelBusinessID,
	LabelPersonalCustomsID,
	LabelPassport,
	LabelMilitaryID,
	LabelIMEI,
	LabelCardNumber,
	LabelPhone,
	LabelBankAccount,
	LabelCardExpiry,
	LabelMACAddress,
	LabelIPv4,
	LabelIPv6,
}

// Patterns maps each regex-detectable label to its compiled pattern.
// CARD_NUMBER and IMEI candidates additionally pass through the Luhn gate
// before acceptance.
var Patterns = map[string]*regexp.Regexp{
	LabelPrivateKey: regexp.MustCompile(
		`-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----(?s:.*?)-----END (?:[A-Z]+ )*PRIVATE KEY-----|-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----`),
	LabelJWT: regexp.MustCompile(
		`\bey[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`),
	LabelGithubPAT: regexp.MustCompile(
		`\b(?:gh[poure]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})\b`),
	LabelAPIKey: regexp.MustCompile(
		`\b(?:sk-[A-Za-z0-9_-]{20,}|AKIA[0-9A-Z]{16}|AIza[0-9A-Za-z_-]{35})\b`),
	LabelHDWallet: regexp.MustCompile(
		`\b[xyz]prv[1-9A-HJ-NP-Za-km-z]{80,120}\b`),
	LabelCryptoPrivateKey: regexp.MustCompile(
		`\b(?:0x[0-9a-fA-F]{64}|[5KL][1-9A-HJ-NP-Za-km-z]{50,51})\b`),
	LabelPaymentURIQR: regexp.MustCompile(
		`\b(?:bitcoin|ethereum|litecoin):[A-Za-z0-9?&=.:%_-]{10,}`),
	// Group 1 captures the bare address inside angle brackets; group 2 the
	// plain form. Selection prefers group 1, then 2, then the full match.
	LabelEmail: regexp.MustCompile(
		`<\s*([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})\s*>|([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`),
	LabelResidentID: regexp.MustCompile(
		`\b\d{6}-[1-4]\d{6}\b`),
	LabelForeignerID: regexp.MustCompile(
		`\b\d{6}-[5-8]\d{6}\b`),
	LabelDriverLicense: regexp.MustCompile(
		`\b\d{2}-\d{2}-\d{6}-\d{2}\b`),
	LabelBusinessID: regexp.MustCompile(
		`\b\d{3}-\d{2}-\d{5}\b`),
	LabelPersonalCustomsID: regexp.MustCompile(
		`\b[Pp]\d{12}\b`),
	LabelPassport: regexp.MustCompile(
		`\b[MSRODG]\d{8}\b`),
	LabelMilitaryID: regexp.MustCompile(
		`\b\d{2}-7\d{7}\b`),
	LabelCardNumber: regexp.MustCompile(
		`\b\d(?:[ -]?\d){12,18}\b`),
	LabelIMEI: regexp.MustCompile(
		`\b\d{2}[- ]?\d{6}[- ]?\d{6}[- ]?\d\b`),
	LabelPhone: regexp.MustCompile(
		`\b0\d{1,2}[-.\x{20}]?\d{3,4}[-.\x{20}]?\d{4}\b`),
	LabelBankAccount: regexp.MustCompile(
		`\b\d{3,6}-\d{2,6}-\d{4,8}\b`),
	LabelCardExpiry: regexp.MustCompile(
		`\b(?:0[1-9]|1[0-2])\s*/\s*(?:2\d{3}|\d{2})\b`),
	LabelMACAddress: regexp.MustCompile(
		`\b[0-9A-Fa-f]{2}(?:[:-][0-9A-Fa-f]{2}){5}\b`),
	LabelIPv4: regexp.MustCompile(
		`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`),
	LabelIPv6: regexp.MustCompile(
		`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b|\b(?:[0-9a-fA-F]{1,4}:)+:(?:[0-9a-fA-F]{1,4}(?::[0-9a-fA-F]{1,4})*)?\b`),
}

// PageOnlyLabels mark patterns whose hits are handled at whole-page
// granularity by the document redactor (a leaked key block cannot be boxed
// word by word).
var PageOnlyLabels = map[string]bool{
	LabelPrivateKey: true,
}
