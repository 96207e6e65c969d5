// Package pictures implements the picture procedures and the system
// procedures exposed over the dispatcher.
//
// Services and their procedures:
//
//	PictureService.uploadPicture   LOGGED  suffix, bytes        -> {id}
//	PictureService.getPictures     PUBLIC  pictureIds           -> {count, pictures}
//	PictureService.deletePicture   LOGGED  pictureId            -> (none)
//	PictureService.listPictures    LOGGED  userId, limit        -> {count, pictureIds}
//	SystemService.listProcedures   PUBLIC                       -> {count, procedures}
//	SystemService.ping             PUBLIC                       -> {time}
//
// Handlers read every argument through params and own the text of their
// success and failure messages.
package pictures
