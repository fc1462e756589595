package credential

import (
	"encoding/json"

	"github.com/wastore/tocmover/common"
)

// detectProvider auto-detects a credential's provider from the shape of
// its JSON blob (spec §4.2, import_folder: "auto-detects provider from
// blob shape"). It never errors: an unrecognised shape returns
// common.EProvider.Unknown(), which import_folder then registers with an
// unlimited default limit (spec §4.2 Failure semantics).
func detectProvider(blob []byte) common.Provider {
	var fields map[string]interface{}
	if err := json.Unmarshal(blob, &fields); err != nil {
		return common.EProvider.Unknown()
	}

	has := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := fields[k]; !ok {
				return false
			}
		}
		return true
	}

	switch {
	case has("service_account"):
		return common.EProvider.GDrive()
	case has("access_key_id"):
		return common.EProvider.S3()
	case has("key_id", "application_key"):
		return common.EProvider.B2()
	case has("account_key") || has("account_name", "sas_token"):
		return common.EProvider.Azure()
	case has("app_key", "app_secret"):
		return common.EProvider.Dropbox()
	case has("refresh_token"):
		return common.EProvider.OneDrive()
	default:
		return common.EProvider.Unknown()
	}
}
