// Package domain models upper-air sounding reports from the University of
// Wyoming sounding archive.
//
// # Data Source
//
// The archive serves one HTML page per station and synoptic hour at
// http://weather.uwyo.edu/cgi-bin/sounding with TYPE=TEXT:LIST. The page wraps
// a fixed-format text table in <PRE> blocks:
//
//	<H2>15420 LRBS Bucuresti Inmh-Banesa Observations at 00Z 02 Nov 2025</H2>
//	<PRE>
//	-----------------------------------------------------------------------------
//	   PRES   HGHT   TEMP   DWPT   RELH   MIXR   DRCT   SKNT   THTA   THTE   THTV
//	    hPa     m      C      C      %    g/kg    deg   knot     K      K      K
//	-----------------------------------------------------------------------------
//	 1000.0     86   12.4   11.2     80   7.55     50      4  285.1  285.7  285.2
//	 ...
//	</PRE><H3>Station information and sounding indices</H3><PRE>
//
// When no sounding was published for the slot the page is still served, but
// without the table header block. That is reported as [ErrUnavailable].
//
// # Table Conventions
//
// Columns are whitespace-aligned, not fixed-width parsed: each line is split
// on runs of spaces. Levels where the archive omitted a value print fewer
// fields; those rows are dropped rather than padded, because positions would
// shift. Values are kept as strings. See [Extractor.Table].
//
// # Station Names
//
// The <H2> header carries the station number, usually the ICAO identifier,
// and the name, followed by "Observations at ...". Some stations print no
// identifier. The name is turned into a folder name by [SanitizeName]. A page
// without a header falls back to the station id.
//
// # Timestamps
//
// Soundings are published on the hour in UTC, normally 00Z and 12Z, sometimes
// 06Z and 18Z. Minutes in user input are accepted and discarded.
package domain
