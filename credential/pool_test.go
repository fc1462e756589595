package credential

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastore/tocmover/common"
)

func newTestPool(t *testing.T) *Pool {
	p := NewPool(common.NopLogger(), common.DefaultPacificOffsetHours)
	t.Cleanup(p.Close)
	return p
}

func TestAddThenCheckout_ReturnsSameID(t *testing.T) {
	p := newTestPool(t)
	id, err := p.Add(common.EProvider.S3(), []byte(`{"access_key_id":"x"}`), "", common.Unlimited)
	require.NoError(t, err)

	snap, err := p.Checkout(common.EProvider.S3(), 0)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
}

func TestCheckout_NoCredentials(t *testing.T) {
	p := newTestPool(t)
	_, err := p.Checkout(common.EProvider.GDrive(), 100)
	assert.ErrorIs(t, err, common.ErrNoCredentials)
}

func TestCheckout_QuotaExhaustedBoundary(t *testing.T) {
	p := newTestPool(t)
	id, err := p.Add(common.EProvider.GDrive(), []byte(`{"service_account":"x"}`), "", 100)
	require.NoError(t, err)

	// used = floor(100 * 0.95) = 95; requesting 1 more byte must exhaust.
	require.NoError(t, p.RecordUsage(id, 95))
	_, err = p.Checkout(common.EProvider.GDrive(), 1)
	assert.ErrorIs(t, err, common.ErrQuotaExhausted)

	// requesting 0 more bytes still succeeds (remaining == 0 >= 0).
	snap, err := p.Checkout(common.EProvider.GDrive(), 0)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
}

func TestCheckout_PrefersMostRemaining(t *testing.T) {
	p := newTestPool(t)
	idA, err := p.Add(common.EProvider.GDrive(), []byte(`{"service_account":"a"}`), "", 1_000_000_000)
	require.NoError(t, err)
	idB, err := p.Add(common.EProvider.GDrive(), []byte(`{"service_account":"b"}`), "", 1_000_000_000)
	require.NoError(t, err)

	require.NoError(t, p.RecordUsage(idA, 600_000_000))

	snap, err := p.Checkout(common.EProvider.GDrive(), 1)
	require.NoError(t, err)
	assert.Equal(t, idB, snap.ID, "credential with more remaining quota should be preferred")
}

func TestRecordUsage_MonotonicityAcrossCheckouts(t *testing.T) {
	p := newTestPool(t)
	id, err := p.Add(common.EProvider.S3(), []byte(`{"access_key_id":"x"}`), "", common.Unlimited)
	require.NoError(t, err)

	require.NoError(t, p.RecordUsage(id, 10))
	require.NoError(t, p.RecordUsage(id, 20))

	snap := p.Status()
	require.Len(t, snap.Credentials, 1)
	assert.Equal(t, int64(30), snap.Credentials[0].BytesUsedToday)
}

func TestTotalRemaining_UnlimitedDominates(t *testing.T) {
	p := newTestPool(t)
	_, err := p.Add(common.EProvider.S3(), []byte(`{"access_key_id":"a"}`), "", common.Unlimited)
	require.NoError(t, err)
	_, err = p.Add(common.EProvider.S3(), []byte(`{"access_key_id":"b"}`), "", 1000)
	require.NoError(t, err)

	assert.Equal(t, common.Unlimited, p.TotalRemaining(common.EProvider.S3()))
}

func TestImportFolder_BadPath(t *testing.T) {
	p := newTestPool(t)
	_, err := p.ImportFolder("/nonexistent/path/for/tocmover/tests")
	assert.ErrorIs(t, err, common.ErrNotADirectory)
}

func TestImportFolder_DetectsProvidersAndSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/gdrive.json", `{"service_account":"svc"}`)
	writeFile(t, dir+"/s3.json", `{"access_key_id":"AKIA..."}`)
	writeFile(t, dir+"/broken.json", `not json at all`)

	p := newTestPool(t)
	count, err := p.ImportFolder(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "malformed files are skipped and do not count toward the import total")

	snap := p.Status()
	byProvider := map[common.Provider]int{}
	for _, c := range snap.Credentials {
		byProvider[c.Provider]++
	}
	assert.Equal(t, 1, byProvider[common.EProvider.GDrive()])
	assert.Equal(t, 1, byProvider[common.EProvider.S3()])
	assert.Equal(t, 1, byProvider[common.EProvider.Unknown()])
}

func TestResetIdempotence(t *testing.T) {
	p := newTestPool(t)
	id, err := p.Add(common.EProvider.S3(), []byte(`{"access_key_id":"x"}`), "", 1000)
	require.NoError(t, err)
	require.NoError(t, p.RecordUsage(id, 500))

	future := time.Now().Add(48 * time.Hour)
	p.ForceReset(future)
	snap := p.Status()
	assert.Equal(t, int64(0), snap.Credentials[0].BytesUsedToday)

	// A second reset with no intervening activity changes nothing further.
	p.ForceReset(future)
	snap2 := p.Status()
	assert.Equal(t, int64(0), snap2.Credentials[0].BytesUsedToday)
}

func TestTimeUntilReset_NonNegative(t *testing.T) {
	p := newTestPool(t)
	_, err := p.Add(common.EProvider.S3(), []byte(`{"access_key_id":"x"}`), "", 1000)
	require.NoError(t, err)

	d := p.TimeUntilReset(common.EProvider.S3())
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
