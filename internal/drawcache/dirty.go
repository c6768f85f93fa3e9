package drawcache

import "go.uber.org/zap"

// DirtyMode says what kind of mesh edit happened.
type DirtyMode uint8

const (
	// DirtyAll schedules a full rebuild at the next Validate.
	DirtyAll DirtyMode = iota
	// DirtySelect follows an edit-mode selection change.
	DirtySelect
	// DirtySelectPaint follows a paint-mode face selection change.
	DirtySelectPaint
	// DirtyShading follows a change of attribute layers or materials.
	DirtyShading
	// DirtyUVEditAll follows a UV coordinate change.
	DirtyUVEditAll
	// DirtyUVEditSelect follows a UV selection change.
	DirtyUVEditSelect
)

var dirtyNames = [...]string{"all", "select", "select_paint", "shading", "uvedit_all", "uvedit_select"}

func (d DirtyMode) String() string {
	if int(d) < len(dirtyNames) {
		return dirtyNames[d]
	}
	return "unknown"
}

var editUVIBOs = []IBOKind{IBOEditUVTris, IBOEditUVLines, IBOEditUVPoints, IBOEditUVFDots}

// TagDirty discards what an edit of the given kind made stale. DirtyAll is
// safe to call from any goroutine; other modes follow the serialization rules
// of BatchCache.
func (c *BatchCache) TagDirty(mode DirtyMode) {
	c.log.Debug("tag dirty", zap.Stringer("mode", mode))
	switch mode {
	case DirtyAll:
		c.dirty.Store(true)
	case DirtySelect:
		c.discardVBO(VBOPosNor, VBOEditData, VBOFDotsNor, VBOEditUVData, VBOFDotsEditUVData)
		c.discardIBO(IBOLinesPaintMask)
		c.discardIBO(editUVIBOs...)
	case DirtySelectPaint:
		c.discardIBO(IBOLinesPaintMask)
		c.discardVBO(VBOPosNor, VBOLNor)
	case DirtyShading:
		c.discardShading()
		c.discardUVEdit()
	case DirtyUVEditAll:
		c.discardUVEdit()
	case DirtyUVEditSelect:
		c.discardVBO(VBOEditUVData, VBOFDotsEditUVData)
		c.discardIBO(editUVIBOs...)
	}
}

// discardShading drops the attribute layer buffers and forgets which layers
// they carried.
func (c *BatchCache) discardShading() {
	c.discardVBO(VBOUV, VBOTan, VBOVCol, VBOOrco, VBOSculptData)
	c.clearReady(Surface)
	c.used.Store(0)
}

func (c *BatchCache) discardUVEdit() {
	c.discardVBO(VBOEditUVStretchAngle, VBOEditUVStretchArea, VBOUV, VBOEditUVData, VBOFDotsUV, VBOFDotsEditUVData)
	c.discardIBO(editUVIBOs...)
	c.used.Clear(MaskEditUV)
	c.totArea, c.totUVArea, c.areasValid = 0, 0, false
}
