package testdata

// KDFVector is a known PBKDF2-HMAC-SHA256 (100,000 iterations) output.
type KDFVector struct {
	Name     string
	Password string
	Salt     string // Hex, 16 bytes
	Key      string // Hex
}

// GCMVector is a known AES-256-GCM output with a 96-bit nonce and no AAD.
type GCMVector struct {
	Name       string
	Key        string // Hex
	Nonce      string // Hex
	Plaintext  string // Hex
	Ciphertext string // Hex
	Tag        string // Hex
}

// KDFVectors pins the password-share key schedule.
var KDFVectors = []KDFVector{
	{
		Name:     "ascii password",
		Password: "MySecurePassword123!",
		Salt:     "000102030405060708090a0b0c0d0e0f",
		Key:      "a11e81c057b318fc8ac1c7e1975b936151d246c48338ce89879fb7c9cd32b6b9",
	},
	{
		Name:     "empty password",
		Password: "",
		Salt:     "000102030405060708090a0b0c0d0e0f",
		Key:      "286ed0e0ec47cc953dc709da86b074849e1c1202cca4acd663df1860514934ae",
	},
	{
		Name:     "unicode password",
		Password: "пароль",
		Salt:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Key:      "dc8eacd87daa911d827f419024cab69a861c8783fd695b516d3a437fff44169c",
	},
}

// GCMVectors are test cases 13 and 14 from the McGrew-Viega GCM paper.
var GCMVectors = []GCMVector{
	{
		Name:       "empty plaintext",
		Key:        "0000000000000000000000000000000000000000000000000000000000000000",
		Nonce:      "000000000000000000000000",
		Plaintext:  "",
		Ciphertext: "",
		Tag:        "530f8afbc74536b9a963b4f1c4cb738b",
	},
	{
		Name:       "single zero block",
		Key:        "0000000000000000000000000000000000000000000000000000000000000000",
		Nonce:      "000000000000000000000000",
		Plaintext:  "00000000000000000000000000000000",
		Ciphertext: "cea7403d4d606b6e074ec5d3baf39d18",
		Tag:        "d0d1c8a799996bf0265b98b5d48ab919",
	},
}
