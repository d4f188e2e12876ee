package config

import (
	"fmt"
	"os"
)

func Template() string {
	return defaultTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `[lookup]
base_url = "https://rest.bitcoin.com/v2"
timeout = "10s"
rate_per_second = 2.0
burst = 1

[transaction]
# mainnet, testnet or regtest
network = "mainnet"
# satoshis paid to the new owner
payment = 2000
# "fixed" charges fee satoshis; "rate" charges fee_rate satoshis per 1000 bytes
fee_kind = "fixed"
fee = 500
fee_rate = 1000

[log]
level = "info"
json = false
no_color = false
timestamp = true

[server]
addr = "127.0.0.1:8420"
cors_origins = ["http://localhost:3000"]
read_timeout = "10s"
write_timeout = "30s"
shutdown_timeout = "5s"
`
