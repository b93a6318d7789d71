package domain

import (
	"fmt"
	"time"
)

// Channels carried by the SWE proxy.
const (
	Channel19H = "19H"
	Channel37H = "37H"
)

// FileDescriptor lists the fields that identify one NSIDC-0630 brightness
// temperature file.
type FileDescriptor struct {
	Protocol    string
	Server      string
	Datapool    string
	Dataset     string
	Version     string
	Projection  string
	Grid        Family
	Resolution  string
	Platform    string
	Sensor      string
	Date        time.Time // directory date
	FileDate    time.Time // date encoded in the file name
	Channel     string
	Pass        string
	Algorithm   string
	Input       string
	DataVersion string
}

// DefaultFileDescriptor returns the descriptor fields shared by every file.
func DefaultFileDescriptor() FileDescriptor {
	return FileDescriptor{
		Protocol:    "https",
		Server:      "n5eil01u.ecs.nsidc.org",
		Datapool:    "MEASURES",
		Dataset:     "NSIDC-0630",
		Version:     "001",
		Projection:  "EASE2",
		Grid:        FamilyNorth,
		Pass:        "M",
		Algorithm:   "SIR",
		Input:       "CSU",
		DataVersion: "v1.3",
	}
}

// FileName returns the base name of the file.
func (d FileDescriptor) FileName() string {
	return fmt.Sprintf("%s-%s_%s%s-%s_%s-%04d%03d-%s-%s-%s-%s-%s.nc",
		d.Dataset, d.Projection, d.Grid, d.Resolution, d.Platform, d.Sensor,
		d.FileDate.Year(), d.FileDate.YearDay(), d.Channel, d.Pass, d.Algorithm, d.Input, d.DataVersion)
}

// URL renders the download location of the file.
func (d FileDescriptor) URL() string {
	return fmt.Sprintf("%s://%s/%s/%s.%s/%s/%s",
		d.Protocol, d.Server, d.Datapool, d.Dataset, d.Version,
		d.Date.Format("2006.01.02"), d.FileName())
}

// platformByYear is the DMSP satellite used for each year of the record.
var platformByYear = map[int]string{
	1992: "F11", 1993: "F11", 1994: "F11", 1995: "F11",
	1996: "F13", 1997: "F13", 1998: "F13", 1999: "F13", 2000: "F13", 2001: "F13", 2002: "F13",
	2003: "F15", 2004: "F15", 2005: "F15", 2006: "F15", 2007: "F15",
	2008: "F16",
	2009: "F17", 2010: "F17", 2011: "F17", 2012: "F17", 2013: "F17",
	2014: "F18",
	2015: "F19",
	2016: "F18",
}

// GRD files between these dates are stamped one day earlier than their directory.
var (
	grdShiftStart = time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)
	grdShiftEnd   = time.Date(2004, 4, 9, 0, 0, 0, 0, time.UTC)
)

// DescriptorFor chooses platform, sensor, resolution and algorithm for one
// channel on one day.
func DescriptorFor(base FileDescriptor, date time.Time, channel string, family Family, highRes bool) (FileDescriptor, error) {
	if channel != Channel19H && channel != Channel37H {
		return FileDescriptor{}, fmt.Errorf("%w: unsupported channel %q", ErrConfiguration, channel)
	}
	platform, ok := platformByYear[date.Year()]
	if !ok {
		return FileDescriptor{}, fmt.Errorf("%w: no platform covers year %d", ErrConfiguration, date.Year())
	}
	grid19, grid37, err := ChannelGrids(family, highRes)
	if err != nil {
		return FileDescriptor{}, err
	}

	d := base
	d.Grid = family
	d.Platform = platform
	d.Sensor = "SSMI"
	switch platform {
	case "F16", "F17", "F18", "F19":
		d.Sensor = "SSMIS"
	}
	d.Channel = channel
	d.Date = date
	d.FileDate = date
	d.Resolution = string(grid19.Resolution) + "km"
	if channel == Channel37H {
		d.Resolution = string(grid37.Resolution) + "km"
	}
	if highRes {
		d.Algorithm = "SIR"
	} else {
		d.Algorithm = "GRD"
		if !date.Before(grdShiftStart) && date.Before(grdShiftEnd) {
			d.FileDate = date.AddDate(0, 0, -1)
		}
	}
	d.Pass = "M"
	if family == FamilyTemperate {
		d.Pass = "A"
	}
	return d, nil
}
