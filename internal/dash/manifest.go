// Package dash implements the DASH post-processor (C2): renaming per-key
// segment files so they don't collide when served from one manifest, and
// merging independent per-rendition MPDs into one composite manifest.
//
// No third-party DASH/MPD library appears anywhere in the retrieved example
// corpus; the standard library's encoding/xml is used instead, the same
// choice the one corpus example that parses DASH manifests
// (internal/downloader/dash.go) makes.
package dash

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	karerrors "github.com/livepeer/karaoke-dash-server/errors"
)

// MPD mirrors the subset of the MPEG-DASH manifest schema this server
// produces and consumes: one Period holding a flat list of AdaptationSets.
type MPD struct {
	XMLName                   xml.Name        `xml:"MPD"`
	XMLNSXSI                  string          `xml:"xmlns:xsi,attr,omitempty"`
	XMLNS                     string          `xml:"xmlns,attr,omitempty"`
	XMLNSXlink                string          `xml:"xmlns:xlink,attr,omitempty"`
	SchemaLocation            string          `xml:"xsi:schemaLocation,attr,omitempty"`
	Profiles                  string          `xml:"profiles,attr,omitempty"`
	Type                      string          `xml:"type,attr,omitempty"`
	MediaPresentationDuration string          `xml:"mediaPresentationDuration,attr,omitempty"`
	MaxSegmentDuration        string          `xml:"maxSegmentDuration,attr,omitempty"`
	MinBufferTime             string          `xml:"minBufferTime,attr,omitempty"`
	Period                    Period          `xml:"Period"`
}

type Period struct {
	ID             string          `xml:"id,attr,omitempty"`
	Start          string          `xml:"start,attr,omitempty"`
	AdaptationSets []AdaptationSet `xml:"AdaptationSet"`
}

type AdaptationSet struct {
	ID                 string         `xml:"id,attr,omitempty"`
	ContentType        string         `xml:"contentType,attr,omitempty"`
	StartWithSAP       string         `xml:"startWithSAP,attr,omitempty"`
	SegmentAlignment   string         `xml:"segmentAlignment,attr,omitempty"`
	BitstreamSwitching string         `xml:"bitstreamSwitching,attr,omitempty"`
	FrameRate          string         `xml:"frameRate,attr,omitempty"`
	MaxWidth           string         `xml:"maxWidth,attr,omitempty"`
	MaxHeight          string         `xml:"maxHeight,attr,omitempty"`
	Par                string         `xml:"par,attr,omitempty"`
	Lang               string         `xml:"lang,attr,omitempty"`
	Representation     Representation `xml:"Representation"`
}

type Representation struct {
	ID                string          `xml:"id,attr,omitempty"`
	MimeType          string          `xml:"mimeType,attr,omitempty"`
	Codecs            string          `xml:"codecs,attr,omitempty"`
	Bandwidth         string          `xml:"bandwidth,attr,omitempty"`
	AudioSamplingRate string          `xml:"audioSamplingRate,attr,omitempty"`
	Width             string          `xml:"width,attr,omitempty"`
	Height            string          `xml:"height,attr,omitempty"`
	SAR               string          `xml:"sar,attr,omitempty"`
	SegmentTemplate   SegmentTemplate `xml:"SegmentTemplate"`
}

type SegmentTemplate struct {
	Timescale       string          `xml:"timescale,attr,omitempty"`
	Initialization  string          `xml:"initialization,attr,omitempty"`
	Media           string          `xml:"media,attr,omitempty"`
	StartNumber     string          `xml:"startNumber,attr,omitempty"`
	SegmentTimeline SegmentTimeline `xml:"SegmentTimeline"`
}

type SegmentTimeline struct {
	S []Segment `xml:"S"`
}

type Segment struct {
	T string `xml:"t,attr,omitempty"`
	D string `xml:"d,attr,omitempty"`
	R string `xml:"r,attr,omitempty"`
}

// staticHeader are the fixed top-level MPD attributes every composite
// manifest shares (§4.2).
var staticHeader = MPD{
	XMLNSXSI:                  "http://www.w3.org/2001/XMLSchema-instance",
	XMLNS:                     "urn:mpeg:dash:schema:mpd:2011",
	XMLNSXlink:                "http://www.w3.org/1999/xlink",
	SchemaLocation:            "urn:mpeg:dash:schema:mpd:2011 DASH-MPD.xsd",
	Profiles:                  "urn:mpeg:dash:profile:isoff-live:2011",
	Type:                      "static",
	MinBufferTime:             "PT2S",
}

// ParseMPD reads and unmarshals one rendition's stream.mpd.
func ParseMPD(path string) (MPD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MPD{}, karerrors.VideoExtractError{Detail: fmt.Sprintf("reading %s: %s", path, err)}
	}
	var m MPD
	if err := xml.Unmarshal(data, &m); err != nil {
		return MPD{}, karerrors.VideoExtractError{Detail: fmt.Sprintf("parsing %s: %s", path, err)}
	}
	return m, nil
}

// renditionDir is one discovered {video,pitch{k}} output directory paired
// with the path-prefix segments should be rewritten to use.
type renditionDir struct {
	dir    string // "video" or "pitch1".."pitch7"
	id     string // "0" for video, "1".."7" for pitch{k}
	prefix string // "video/" or "pitch{k}/"
}

// FindRenditionDirs scans outDir for video/ and pitch{k}/ subdirectories
// that contain a stream.mpd, sorted by directory name so merge order is
// deterministic.
func FindRenditionDirs(outDir string) ([]string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, karerrors.VideoExtractError{Detail: fmt.Sprintf("reading %s: %s", outDir, err)}
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name != "video" && !strings.HasPrefix(name, "pitch") {
			continue
		}
		mpdPath := filepath.Join(outDir, name, "stream.mpd")
		if _, err := os.Stat(mpdPath); err == nil {
			dirs = append(dirs, name)
		}
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		return nil, karerrors.VideoExtractError{Detail: fmt.Sprintf("no rendition manifests found under %s", outDir)}
	}
	return dirs, nil
}

func renditionID(dirName string) string {
	if dirName == "video" {
		return "0"
	}
	return strings.TrimPrefix(dirName, "pitch")
}

// Merge reads every per-rendition stream.mpd under outDir and concatenates
// their rewritten AdaptationSets into a single composite manifest, written
// to outDir/{name}.mpd.
func Merge(outDir, name string) error {
	dirs, err := FindRenditionDirs(outDir)
	if err != nil {
		return err
	}

	composite := staticHeader
	composite.Period = Period{ID: "0", Start: "PT0S"}

	for _, dirName := range dirs {
		mpdPath := filepath.Join(outDir, dirName, "stream.mpd")
		m, err := ParseMPD(mpdPath)
		if err != nil {
			return err
		}

		id := renditionID(dirName)
		prefix := dirName + "/"

		for _, as := range m.Period.AdaptationSets {
			as.ID = id
			as.Representation.SegmentTemplate.Initialization = prefix + as.Representation.SegmentTemplate.Initialization
			as.Representation.SegmentTemplate.Media = prefix + as.Representation.SegmentTemplate.Media
			composite.Period.AdaptationSets = append(composite.Period.AdaptationSets, as)
		}
	}

	out, err := xml.MarshalIndent(composite, "", "  ")
	if err != nil {
		return karerrors.VideoExtractError{Detail: err.Error()}
	}

	dest := filepath.Join(outDir, name+".mpd")
	header := []byte(xml.Header)
	if err := os.WriteFile(dest, append(header, out...), 0o644); err != nil {
		return karerrors.VideoExtractError{Detail: err.Error()}
	}
	return nil
}
