package calibration

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/du-phan/resilio/internal/validator"
	"github.com/du-phan/resilio/internal/xerrors"
)

// LoadFile overlays the TOML file at path onto the defaults. A missing file
// yields the defaults. Map entries (sports, goal multipliers) replace whole
// entries; lists replace the whole list.
func LoadFile(path string) (Params, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return Params{}, fmt.Errorf("failed to stat calibration file: %w", err)
	}

	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Params{}, fmt.Errorf("failed to decode calibration file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Params{}, fmt.Errorf("unknown calibration keys: %v", undecoded)
	}
	if err := checkSportEntries(md, p.Load.Sports); err != nil {
		return Params{}, err
	}
	if !md.IsDefined("version") || p.Version == DefaultVersion {
		p.Version = DefaultVersion + "+" + filepath.Base(path)
	}

	if err := validator.Validate(&p); err != nil {
		return Params{}, err
	}
	return p, nil
}

// checkSportEntries rejects sport overrides that leave a coefficient unset;
// a replaced entry would otherwise silently zero it.
func checkSportEntries(md toml.MetaData, sports map[string]Coefficients) error {
	fields := map[string]string{}
	for name := range sports {
		if !md.IsDefined("load", "sports", name) {
			continue
		}
		for _, key := range []string{"systemic", "lower_body"} {
			if !md.IsDefined("load", "sports", name, key) {
				fields["load.sports."+name+"."+key] = "must be set when overriding a sport"
			}
		}
	}
	if len(fields) > 0 {
		return xerrors.Validation(fields, xerrors.WithMessage("invalid calibration"))
	}
	return nil
}

// Encode writes p as TOML; the output round-trips through LoadFile.
func Encode(w io.Writer, p Params) error {
	if err := toml.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("failed to encode calibration: %w", err)
	}
	return nil
}
