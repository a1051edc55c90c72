package extract

import (
	"strings"
	"testing"
	"time"

	"radiofeed/internal/track"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractPage_LayoutAPlain(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<div class="songCont" data-youtube="fJ9rUzIMcZQ">
  <span class="cont anim"><img class="js-img-lload" data-lazy-load="https://is1-ssl.mzstatic.com/image/thumb/x/50x50bb.webp" alt="Queen - Bohemian Rhapsody"></span>
  <div class="txt1 anim"><span class="txt2" title="19.05.2025 21:33">21:33</span> Queen - Bohemian Rhapsody</div>
</div>
<div class="songCont">
  <div class="txt1 anim"><span class="txt2">19.05 21:29</span> Jingle Radia 357</div>
</div>
<div class="songCont">
  <div class="txt1 anim">21:20   Kult - Arahja</div>
</div>
</body></html>`)

	fields := New(zap.NewNop()).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 3)

	first := fields[0]
	assert.Equal(t, track.LayoutAPlain, first.Layout)
	assert.Equal(t, "Queen", first.Artist)
	assert.Equal(t, "Bohemian Rhapsody", first.Title)
	assert.Equal(t, "19.05.2025 21:33", first.RawTime)
	assert.Equal(t, "fJ9rUzIMcZQ", first.VideoID)
	assert.Equal(t, "https://is1-ssl.mzstatic.com/image/thumb/x/50x50bb.webp", first.CoverBase)
	assert.Equal(t, "Queen - Bohemian Rhapsody", first.DisplayLabel)

	second := fields[1]
	assert.Equal(t, "", second.Artist)
	assert.Equal(t, "Jingle Radia 357", second.Title)
	assert.Equal(t, "19.05 21:29", second.RawTime)

	third := fields[2]
	assert.Equal(t, "Kult", third.Artist)
	assert.Equal(t, "Arahja", third.Title)
	assert.Equal(t, "", third.RawTime)
	assert.Equal(t, "", third.CoverBase)
}

func TestExtract_LeadingClockStripped(t *testing.T) {
	doc := mustDoc(t, `<div class="songCont">21:33 Queen - Bohemian Rhapsody</div>`)

	f := New(nil).Extract(doc.Find("div.songCont"), track.LayoutAPlain)
	assert.Equal(t, "Queen", f.Artist)
	assert.Equal(t, "Bohemian Rhapsody", f.Title)
}

func TestExtract_SplitsOnFirstSeparatorOnly(t *testing.T) {
	doc := mustDoc(t, `<div class="songCont"><div class="txt1">07:15 Perfect - Autobiografia - live</div></div>`)

	f := New(nil).Extract(doc.Find("div.songCont"), track.LayoutAPlain)
	assert.Equal(t, "Perfect", f.Artist)
	assert.Equal(t, "Autobiografia - live", f.Title)
}

func TestExtractPage_LayoutAMicrodata(t *testing.T) {
	doc := mustDoc(t, `<html><body><div class="playlist">
<div class="yt-row" itemscope itemtype="http://schema.org/MusicRecording">
  <span class="txt2" title="19.05.2025 20:00">20:00</span>
  <span itemprop="byArtist" itemscope><span itemprop="name">Dawid Podsiadło</span></span>
  <span itemprop="name">Małomiasteczkowy</span>
</div>
<div class="yt-btn" data-youtube="abc123"></div>
</div></body></html>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 1)

	f := fields[0]
	assert.Equal(t, track.LayoutAMicrodata, f.Layout)
	assert.Equal(t, "Dawid Podsiadło", f.Artist)
	assert.Equal(t, "Małomiasteczkowy", f.Title)
	assert.Equal(t, "19.05.2025 20:00", f.RawTime)
	assert.Equal(t, "abc123", f.VideoID)
}

func TestExtractPage_NestedContainersOnce(t *testing.T) {
	doc := mustDoc(t, `<div class="songCont"><div class="yt-row">
  <span itemprop="byArtist">Myslovitz</span><span itemprop="name">Długość dźwięku samotności</span>
</div></div>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 1)
	assert.Equal(t, track.LayoutAMicrodata, fields[0].Layout)
	assert.Equal(t, "Myslovitz", fields[0].Artist)
}

func TestExtract_CoverFromAncestor(t *testing.T) {
	doc := mustDoc(t, `<ul>
<li><span class="cont anim"><img class="js-img-lload" data-lazy-load="https://a.example/50x50bb.webp"></span>
    <div class="songCont"><div class="txt1 anim">Artist A - Song A</div></div></li>
<li><span class="cont anim"><img class="js-img-lload" data-lazy-load="https://b.example/50x50bb.webp"></span>
    <div class="songCont"><div class="txt1 anim">Artist B - Song B</div></div></li>
</ul>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 2)
	assert.Equal(t, "https://a.example/50x50bb.webp", fields[0].CoverBase)
	assert.Equal(t, "https://b.example/50x50bb.webp", fields[1].CoverBase)
}

func TestExtract_CoverFromSibling(t *testing.T) {
	doc := mustDoc(t, `<div class="list">
<span class="cont"><img data-lazy-load="https://a.example/"></span>
<div class="songCont"><div class="txt1">A - 1</div></div>
<span class="cont"><img data-lazy-load="https://b.example/"></span>
<div class="songCont"><div class="txt1">B - 2</div></div>
</div>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 2)
	assert.Equal(t, "https://a.example/", fields[0].CoverBase)
	assert.Equal(t, "https://b.example/", fields[1].CoverBase)
}

func TestExtract_MediaAfterContainer(t *testing.T) {
	doc := mustDoc(t, `<div class="list">
<div class="songCont"><div class="txt1">A - 1</div></div>
<span class="cont"><img data-lazy-load="https://a.example/"></span>
<div class="songCont"><div class="txt1">B - 2</div></div>
<span class="cont"><img data-lazy-load="https://b.example/"></span>
</div>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 2)
	assert.Equal(t, "1", fields[0].Title)
	assert.Equal(t, "https://a.example/", fields[0].CoverBase)
	assert.Equal(t, "2", fields[1].Title)
	assert.Equal(t, "https://b.example/", fields[1].CoverBase)
}

func TestExtract_VideoAfterContainer(t *testing.T) {
	doc := mustDoc(t, `<div class="playlist">
<div class="yt-row"><span itemprop="byArtist">A</span><span itemprop="name">1</span></div>
<div class="yt-btn" data-youtube="VID_A"></div>
<div class="yt-row"><span itemprop="byArtist">B</span><span itemprop="name">2</span></div>
<div class="yt-btn" data-youtube="VID_B"></div>
<div class="yt-row"><span itemprop="byArtist">C</span><span itemprop="name">3</span></div>
</div>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 3)
	assert.Equal(t, "VID_A", fields[0].VideoID)
	assert.Equal(t, "VID_B", fields[1].VideoID)
	assert.Equal(t, "", fields[2].VideoID, "чужое видео не заимствуется")
}

func TestExtract_VideoBeforeContainer(t *testing.T) {
	doc := mustDoc(t, `<div class="playlist">
<div class="yt-btn" data-youtube="VID_A"></div>
<div class="songCont"><div class="txt1">A - 1</div></div>
<div class="yt-btn" data-youtube="VID_B"></div>
<div class="songCont"><div class="txt1">B - 2</div></div>
</div>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 2)
	assert.Equal(t, "VID_A", fields[0].VideoID)
	assert.Equal(t, "VID_B", fields[1].VideoID)
}

func TestExtract_PlainTimeBesideText(t *testing.T) {
	doc := mustDoc(t, `<div class="songCont">
<span class="txt2" title="19.05.2025 21:33">21:33</span>
<div class="txt1">Queen - Bohemian Rhapsody</div>
</div>`)

	f := New(nil).Extract(doc.Find("div.songCont"), track.LayoutAPlain)
	assert.Equal(t, "19.05.2025 21:33", f.RawTime)
	assert.Equal(t, "Queen", f.Artist)
	assert.Equal(t, "Bohemian Rhapsody", f.Title)
}

func TestExtract_LocalCoverWins(t *testing.T) {
	doc := mustDoc(t, `<div class="row">
<img data-lazy-load="https://outer.example/">
<div class="songCont"><img data-lazy-load="https://inner.example/"><div class="txt1">A - 1</div></div>
</div>`)

	fields := New(nil).ExtractPage(doc, track.FamilyA)
	require.Len(t, fields, 1)
	assert.Equal(t, "https://inner.example/", fields[0].CoverBase)
}

func TestExtractPage_LayoutB(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<img src="/logo.png" data-lazy-load="https://ukradiolive.com/logo.png">
<div class="col-md-9"><ul class="list-group">
  <li class="list-group-item">1:00 AM - BBC - Breakfast Show</li>
  <li class="list-group-item"><b>11:58 PM</b> - Dua Lipa - Houdini</li>
  <li class="list-group-item">Station ident</li>
  <li class="list-group-item">2:15 pm - Newsbeat</li>
</ul></div>
<div class="col-md-3"><ul class="list-group"><li class="list-group-item">sidebar</li></ul></div>
</body></html>`)

	fields := New(nil).ExtractPage(doc, track.FamilyB)
	require.Len(t, fields, 4)

	assert.Equal(t, track.Fields{Layout: track.LayoutB, Artist: "BBC", Title: "Breakfast Show", RawTime: "1:00 AM"}, fields[0])
	assert.Equal(t, track.Fields{Layout: track.LayoutB, Artist: "Dua Lipa", Title: "Houdini", RawTime: "11:58 PM"}, fields[1])
	assert.Equal(t, track.Fields{Layout: track.LayoutB, Title: "Station ident"}, fields[2])
	assert.Equal(t, track.Fields{Layout: track.LayoutB, Title: "Newsbeat", RawTime: "2:15 pm"}, fields[3])
}

func TestExtractPage_LayoutBToCanonical(t *testing.T) {
	doc := mustDoc(t, `<div class="col-md-9"><ul class="list-group">
<li class="list-group-item">1:00 AM - BBC - Breakfast Show</li></ul></div>`)

	fields := New(nil).ExtractPage(doc, track.FamilyB)
	require.Len(t, fields, 1)

	fetched := time.Date(2025, time.May, 19, 9, 0, 0, 0, time.UTC)
	rec, err := track.NewAssembler(fetched, nil).Assemble(track.Source{Name: "BBC Radio 1"}, fields[0])
	require.NoError(t, err)

	assert.Equal(t, "19.05.2025 01:00", rec.BroadcastTime)
	assert.Equal(t, "BBC", rec.Artist)
	assert.Equal(t, "Breakfast Show", rec.Title)
}

func TestExtractPage_UnknownFamily(t *testing.T) {
	doc := mustDoc(t, `<div class="songCont">A - B</div>`)
	assert.Nil(t, New(nil).ExtractPage(doc, track.FamilyUnknown))
	assert.Nil(t, New(nil).ExtractPage(nil, track.FamilyA))
}

func TestExtract_MissingFieldsAreEmpty(t *testing.T) {
	doc := mustDoc(t, `<div class="songCont"><div class="txt1"></div></div>`)

	f := New(nil).Extract(doc.Find("div.songCont"), track.LayoutAPlain)
	assert.Equal(t, track.Fields{Layout: track.LayoutAPlain}, f)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Beyonc\u00e9 - Halo", clean("  Beyonce\u0301 -\n\u00a0Halo "))
}
