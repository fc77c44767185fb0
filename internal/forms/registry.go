package forms

import (
	"errors"
	"fmt"
)

// VerifyRegistry checks that the static tables agree with each other: every
// FormType has a schema, a mapping table and hardwired constants, every mapped
// form field is declared by the schema, system fields are never mapped, and no
// table overwrites a hardwired key. The server refuses to start otherwise.
func VerifyRegistry() error {
	var errs []error
	seenRecordTypes := map[string]FormType{}

	for _, ft := range AllFormTypes {
		samples := schemaSamples(ft)
		if len(samples) == 0 {
			errs = append(errs, fmt.Errorf("%s: no schema registered", ft))
			continue
		}
		table, ok := fieldMappings[ft]
		if !ok || len(table) == 0 {
			errs = append(errs, fmt.Errorf("%s: no field mapping registered", ft))
			continue
		}
		hardwired := HardwiredFields(ft)
		if hardwired == nil {
			errs = append(errs, fmt.Errorf("%s: no hardwired fields registered", ft))
			continue
		}

		id := recordTypeIDs[ft]
		if other, dup := seenRecordTypes[id]; dup {
			errs = append(errs, fmt.Errorf("%s: record type id %s already used by %s", ft, id, other))
		}
		seenRecordTypes[id] = ft

		declared := map[string]struct{}{}
		for _, s := range samples {
			for name := range fieldNames(s) {
				declared[name] = struct{}{}
			}
		}

		for _, pair := range table {
			if _, system := systemFields[pair.Form]; system {
				errs = append(errs, fmt.Errorf("%s: system field %q must not be mapped", ft, pair.Form))
			}
			if _, ok := declared[pair.Form]; !ok {
				errs = append(errs, fmt.Errorf("%s: mapped field %q is not declared by the schema", ft, pair.Form))
			}
			if _, ok := hardwired[pair.CRM]; ok {
				errs = append(errs, fmt.Errorf("%s: field %q overwrites hardwired %q", ft, pair.Form, pair.CRM))
			}
		}
	}

	return errors.Join(errs...)
}
