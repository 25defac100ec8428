// Package gif encodes canvases as animated GIF89a files.
//
// Every frame is quantized to 256 colors with a self-organizing network
// ([Quantizer]) and compressed with variable-width LZW. The first frame
// carries the logical screen descriptor and the global color table; later
// frames carry local tables.
//
//	enc := gif.NewEncoder(gif.WithDelay(100*time.Millisecond), gif.WithRepeat(0))
//	if err := enc.Start(f); err != nil {
//	    return err
//	}
//	for _, c := range frames {
//	    if err := enc.AddFrame(c); err != nil {
//	        return err
//	    }
//	}
//	return enc.Finish()
//
// An Encoder moves through idle, started and finished; calls out of order
// fail with ggshot.ErrInvalidState.
package gif
