// Package partfile reads and writes partition files.
//
// Files are read in either form: plain JSON, or gzip-compressed JSON when
// the name ends in ".gz". Line terminators are dropped while reading, so a
// document split over several lines is joined without separators. Files are
// always written compressed, and writing a partition removes any other
// physical form of it first.
package partfile
