package grid

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite"
)

// parseGeoPackage reads the first feature table of a GeoPackage. A
// GeoPackage is a SQLite database whose gpkg_contents / gpkg_geometry_columns
// tables describe the feature tables and their SRS; geometry cells hold a
// GPKG binary header followed by standard WKB.
func parseGeoPackage(path string) (*rawCollection, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &FormatError{Source: path, Reason: fmt.Sprintf("opening sqlite: %v", err)}
	}
	defer db.Close()

	var table, geomCol string
	var srid int
	err = db.QueryRow(`
		SELECT c.table_name, g.column_name, g.srs_id
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name
		LIMIT 1`).Scan(&table, &geomCol, &srid)
	if err != nil {
		return nil, &FormatError{Source: path, Reason: fmt.Sprintf("not a GeoPackage feature container: %v", err)}
	}

	rows, err := db.Query(fmt.Sprintf(`SELECT * FROM %q`, table))
	if err != nil {
		return nil, &FormatError{Source: path, Reason: fmt.Sprintf("reading feature table %s: %v", table, err)}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &FormatError{Source: path, Reason: err.Error()}
	}

	raw := &rawCollection{srid: normalizeGPKGSRID(srid)}
	for rows.Next() {
		values := make([]any, len(cols))
		scan := make([]any, len(cols))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, &FormatError{Source: path, Reason: fmt.Sprintf("scanning feature row: %v", err)}
		}

		rf := rawFeature{attrs: make(map[string]any, len(cols)-1)}
		for i, name := range cols {
			if name == geomCol {
				geom, err := decodeGPKGGeometry(asBytes(values[i]))
				if err != nil {
					return nil, &FormatError{Source: path, Reason: fmt.Sprintf("decoding geometry: %v", err)}
				}
				rf.geom = geom
				continue
			}
			rf.attrs[name] = normalizeSQLValue(values[i])
		}
		raw.features = append(raw.features, rf)
	}
	if err := rows.Err(); err != nil {
		return nil, &FormatError{Source: path, Reason: err.Error()}
	}
	return raw, nil
}

// parseGeoPackageBytes spools an uploaded GeoPackage to a temp file; SQLite
// needs a seekable file, and uploads are bounded and fully buffered anyway.
func parseGeoPackageBytes(name string, data []byte) (*rawCollection, error) {
	tmp, err := os.CreateTemp("", "gridscope-*.gpkg")
	if err != nil {
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("spooling upload: %w", err)
	}

	raw, err := parseGeoPackage(tmp.Name())
	if err != nil {
		// Report the caller's name, not the temp path.
		return nil, rewriteSource(err, name)
	}
	return raw, nil
}

func normalizeGPKGSRID(srid int) int {
	switch srid {
	case sridWGS84, sridWebMercator:
		return srid
	case 0, -1:
		// GPKG reserves 0 (undefined geographic) and -1 (undefined cartesian).
		return sridUndeclared
	default:
		return sridUnknown
	}
}

// decodeGPKGGeometry strips the GeoPackage binary header and unmarshals the
// trailing WKB. Header layout: magic "GP", version, flags, int32 srs_id,
// then an envelope whose size the flags declare.
func decodeGPKGGeometry(blob []byte) (orb.Geometry, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("missing GPKG geometry header")
	}
	flags := blob[3]
	if flags&0x20 != 0 {
		// Empty-geometry flag.
		return nil, nil
	}

	var envelopeSize int
	switch (flags >> 1) & 0x07 {
	case 0:
		envelopeSize = 0
	case 1:
		envelopeSize = 32
	case 2, 3:
		envelopeSize = 48
	case 4:
		envelopeSize = 64
	default:
		return nil, fmt.Errorf("invalid GPKG envelope contents indicator")
	}

	offset := 8 + envelopeSize
	if len(blob) <= offset {
		return nil, fmt.Errorf("GPKG geometry truncated before WKB payload")
	}
	return wkb.Unmarshal(blob[offset:])
}

// encodeGPKGGeometry wraps WKB in a minimal GPKG binary header (no
// envelope, little-endian). Used by tests to build fixture files.
func encodeGPKGGeometry(geom orb.Geometry, srid int32) ([]byte, error) {
	payload, err := wkb.Marshal(geom)
	if err != nil {
		return nil, err
	}
	header := make([]byte, 8)
	header[0], header[1] = 'G', 'P'
	header[2] = 0    // version 1
	header[3] = 0x01 // little-endian header, no envelope
	binary.LittleEndian.PutUint32(header[4:], uint32(srid))
	return append(header, payload...), nil
}

func asBytes(v any) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	default:
		return nil
	}
}

// normalizeSQLValue maps driver scan values onto the dataset's scalar kinds.
func normalizeSQLValue(v any) any {
	switch value := v.(type) {
	case []byte:
		return string(value)
	case int64:
		return float64(value)
	case nil:
		return nil
	default:
		return value
	}
}

// rewriteSource swaps the temp-file path in loader errors for the upload's
// client-side name.
func rewriteSource(err error, name string) error {
	switch e := err.(type) {
	case *FormatError:
		e.Source = filepath.Base(name)
		return e
	case *ProjectionError:
		e.Source = filepath.Base(name)
		return e
	default:
		return err
	}
}
