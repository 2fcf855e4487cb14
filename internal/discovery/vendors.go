// internal/discovery/vendors.go
package discovery

import "strings"

// VendorDatabase names the USB-serial bridges commonly found on
// microcontroller boards
type VendorDatabase struct {
	vendors map[string]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[string]string
}

// NewVendorDatabase creates and initializes the vendor database
func NewVendorDatabase() *VendorDatabase {
	db := &VendorDatabase{
		vendors: make(map[string]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

func (db *VendorDatabase) initializeDatabase() {
	db.vendors["0403"] = &VendorInfo{
		Name: "FTDI",
		products: map[string]string{
			"6001": "FT232R USB UART",
			"6010": "FT2232 Dual UART",
			"6014": "FT232H Single HS UART",
			"6015": "FT-X Series UART",
		},
	}
	db.vendors["10C4"] = &VendorInfo{
		Name: "Silicon Labs",
		products: map[string]string{
			"EA60": "CP210x UART Bridge",
			"EA70": "CP2105 Dual UART Bridge",
		},
	}
	db.vendors["1A86"] = &VendorInfo{
		Name: "WCH",
		products: map[string]string{
			"7523": "CH340 Serial",
			"55D4": "CH9102 Serial",
		},
	}
	db.vendors["067B"] = &VendorInfo{
		Name: "Prolific",
		products: map[string]string{
			"2303": "PL2303 Serial",
		},
	}
	db.vendors["2341"] = &VendorInfo{
		Name: "Arduino",
		products: map[string]string{
			"0043": "Uno R3",
			"0042": "Mega 2560 R3",
			"8036": "Leonardo",
		},
	}
	db.vendors["303A"] = &VendorInfo{
		Name: "Espressif",
		products: map[string]string{
			"1001": "USB JTAG/serial debug unit",
		},
	}
	db.vendors["2E8A"] = &VendorInfo{
		Name: "Raspberry Pi",
		products: map[string]string{
			"000A": "Pico",
		},
	}
}

// Lookup returns the vendor name and, when known, the product name
func (db *VendorDatabase) Lookup(vid, pid string) (vendor, product string) {
	info, ok := db.vendors[strings.ToUpper(vid)]
	if !ok {
		return "", ""
	}
	return info.Name, info.products[strings.ToUpper(pid)]
}

// IsKnownVendor checks if vendor ID is in database
func (db *VendorDatabase) IsKnownVendor(vid string) bool {
	_, ok := db.vendors[strings.ToUpper(vid)]
	return ok
}
