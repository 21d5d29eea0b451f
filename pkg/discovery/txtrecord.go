package discovery

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeClientTXT creates the TXT records of an instance.
func EncodeClientTXT(info *ClientInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyID: info.ID,
	}
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}
	if info.Version != "" {
		txt[TXTKeyVersion] = info.Version
	}
	switch info.AuthMode {
	case model.AuthPreSharedKey:
		txt[TXTKeyAuth] = authPSK
	case model.AuthX509:
		txt[TXTKeyAuth] = authX509
	}
	return txt
}

// DecodeClientTXT parses the TXT records of an instance. Only the id is
// required.
func DecodeClientTXT(txt TXTRecordMap) (*ClientInfo, error) {
	id, ok := txt[TXTKeyID]
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}
	info := &ClientInfo{
		ID:      id,
		Name:    txt[TXTKeyName],
		Version: txt[TXTKeyVersion],
	}

	switch strings.ToLower(txt[TXTKeyAuth]) {
	case "":
	case authPSK:
		info.AuthMode = model.AuthPreSharedKey
	case authX509:
		info.AuthMode = model.AuthX509
	default:
		return nil, fmt.Errorf("%w: auth %q", ErrInvalidTXTRecord, txt[TXTKeyAuth])
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	keys := make([]string, 0, len(txt))
	for k := range txt {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(txt))
	for _, k := range keys {
		result = append(result, k+"="+txt[k])
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if k == "" {
			continue
		}
		if !found {
			// Key without value (boolean flag)
			v = ""
		}
		txt[k] = v
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// instanceName derives the advertised instance name from info.
func instanceName(info *ClientInfo) string {
	name := strings.TrimSpace(info.Name)
	if name == "" {
		id := info.ID
		if len(id) > 8 {
			id = id[:8]
		}
		name = "hubclient-" + id
	}
	for len(name) > MaxInstanceNameLen {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}
